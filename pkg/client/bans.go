package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// BanFilter narrows ListBans results. The zero value lists every ban
// visible to the token, newest first.
type BanFilter struct {
	// Search matches ban reasons, notes, and identifiers.
	Search string

	// BanListID restricts results to one ban list.
	BanListID string

	// ServerID restricts results to bans scoped to one server.
	ServerID string

	// OrganizationID restricts results to one organization's bans.
	OrganizationID string

	// Sort orders results ("timestamp", "-timestamp").
	Sort string

	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *BanFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Search != "" {
		q.Set("filter[search]", f.Search)
	}
	if f.BanListID != "" {
		q.Set("filter[banList]", f.BanListID)
	}
	if f.ServerID != "" {
		q.Set("filter[server]", f.ServerID)
	}
	if f.OrganizationID != "" {
		q.Set("filter[organization]", f.OrganizationID)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	setPageSize(q, f.PageSize)
	return q
}

// BanCreate describes a new ban. BanListID and OrganizationID are
// required; everything else is optional.
type BanCreate struct {
	Reason      string
	Note        string
	Expires     *time.Time // nil bans permanently
	Identifiers []BanIdentifier

	OrgWide        bool
	AutoAddEnabled bool
	NativeEnabled  *bool

	// UID is the public ban identifier shown to kicked players. Left
	// empty, the client generates one.
	UID string

	PlayerID       string
	ServerID       string
	OrganizationID string
	BanListID      string
}

// BanUpdate carries the changes for UpdateBan. Nil fields keep the
// current value.
type BanUpdate struct {
	Reason  *string
	Note    *string
	Expires *time.Time

	// ClearExpires lifts the expiry, making the ban permanent.
	ClearExpires bool
}

// GetBan fetches one ban by id.
func (c *Client) GetBan(ctx context.Context, banID string) (*Ban, error) {
	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/bans/" + banID,
		Name:   "/bans/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	ban, err := decodeOne(doc, decodeBan)
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// ListBans returns a pager over bans matching the filter. Pass nil to
// list everything visible to the token.
func (c *Client) ListBans(filter *BanFilter) *pagination.Pager[Ban] {
	first := c.endpointURL("/bans", filter.values())
	return pagination.NewPager(c.pageFetcher("/bans"), decodeBan, first)
}

// CreateBan issues a new ban and returns it as stored by the API.
func (c *Client) CreateBan(ctx context.Context, ban *BanCreate) (*Ban, error) {
	if ban == nil {
		return nil, fmt.Errorf("ban is required")
	}
	if ban.BanListID == "" {
		return nil, fmt.Errorf("ban list id is required")
	}
	if ban.OrganizationID == "" {
		return nil, fmt.Errorf("organization id is required")
	}

	uid := ban.UID
	if uid == "" {
		uid = newBanUID()
	}

	attributes := map[string]any{
		"uid":            uid,
		"timestamp":      formatTime(time.Now()),
		"reason":         ban.Reason,
		"orgWide":        ban.OrgWide,
		"autoAddEnabled": ban.AutoAddEnabled,
		"nativeEnabled":  ban.NativeEnabled,
	}
	if ban.Note != "" {
		attributes["note"] = ban.Note
	}
	if ban.Expires != nil {
		attributes["expires"] = formatTime(*ban.Expires)
	}
	if len(ban.Identifiers) > 0 {
		attributes["identifiers"] = ban.Identifiers
	}

	relationships := map[string]any{
		"organization": toOne(TypeOrganization, ban.OrganizationID),
		"banList":      toOne(TypeBanList, ban.BanListID),
	}
	if ban.PlayerID != "" {
		relationships["player"] = toOne(TypePlayer, ban.PlayerID)
	}
	if ban.ServerID != "" {
		relationships["server"] = toOne(TypeServer, ban.ServerID)
	}

	body := map[string]any{
		"data": map[string]any{
			"type":          TypeBan,
			"attributes":    attributes,
			"relationships": relationships,
		},
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodPost,
		Path:   "/bans",
		Name:   "/bans",
	}, body)
	if err != nil {
		return nil, err
	}

	created, err := decodeOne(doc, decodeBan)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateBan patches an existing ban and returns the updated entry.
func (c *Client) UpdateBan(ctx context.Context, banID string, update *BanUpdate) (*Ban, error) {
	if update == nil {
		return nil, fmt.Errorf("update is required")
	}

	attributes := map[string]any{}
	if update.Reason != nil {
		attributes["reason"] = *update.Reason
	}
	if update.Note != nil {
		attributes["note"] = *update.Note
	}
	if update.Expires != nil {
		attributes["expires"] = formatTime(*update.Expires)
	} else if update.ClearExpires {
		attributes["expires"] = nil
	}
	if len(attributes) == 0 {
		return nil, fmt.Errorf("update has no changes")
	}

	body := map[string]any{
		"data": map[string]any{
			"type":       TypeBan,
			"id":         banID,
			"attributes": attributes,
		},
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodPatch,
		Path:   "/bans/" + banID,
		Name:   "/bans/{id}",
	}, body)
	if err != nil {
		return nil, err
	}

	updated, err := decodeOne(doc, decodeBan)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBan removes a ban.
func (c *Client) DeleteBan(ctx context.Context, banID string) error {
	_, err := c.do(ctx, Route{
		Method: http.MethodDelete,
		Path:   "/bans/" + banID,
		Name:   "/bans/{id}",
	}, nil)
	return err
}

// ListBanLists returns a pager over ban lists. An empty organizationID
// lists every ban list the token can see.
func (c *Client) ListBanLists(organizationID string, pageSize int) *pagination.Pager[BanList] {
	q := url.Values{}
	if organizationID != "" {
		q.Set("filter[organization]", organizationID)
	}
	setPageSize(q, pageSize)

	first := c.endpointURL("/ban-lists", q)
	return pagination.NewPager(c.pageFetcher("/ban-lists"), decodeBanList, first)
}

// toOne renders a to-one relationship for a request body.
func toOne(resType, id string) map[string]any {
	return map[string]any{
		"data": map[string]string{"type": resType, "id": id},
	}
}

// newBanUID generates the 14 character public ban identifier.
func newBanUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
