package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// PlayerFilter narrows ListPlayers results. The zero value lists all
// visible players with the API's default page size.
type PlayerFilter struct {
	// Search matches player names and identifiers.
	Search string

	// ServerIDs restricts results to players seen on any of the given
	// servers.
	ServerIDs []string

	// OrganizationIDs restricts results to players seen on any of the
	// given organizations' servers.
	OrganizationIDs []string

	// Online restricts results to players currently online.
	Online bool

	// Sort orders results.
	Sort string

	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *PlayerFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Search != "" {
		q.Set("filter[search]", f.Search)
	}
	if len(f.ServerIDs) > 0 {
		q.Set("filter[servers]", strings.Join(f.ServerIDs, ","))
	}
	if len(f.OrganizationIDs) > 0 {
		q.Set("filter[organizations]", strings.Join(f.OrganizationIDs, ","))
	}
	if f.Online {
		q.Set("filter[online]", "true")
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	setPageSize(q, f.PageSize)
	return q
}

// SessionFilter narrows session history queries. The zero value covers the
// last 24 hours across all servers.
type SessionFilter struct {
	// ServerIDs restricts sessions to the given servers.
	ServerIDs []string

	// OrganizationIDs restricts sessions to the given organizations'
	// servers.
	OrganizationIDs []string

	// Start and Stop bound the window when the endpoint supports one.
	Start time.Time
	Stop  time.Time

	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *SessionFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if len(f.ServerIDs) > 0 {
		q.Set("filter[servers]", strings.Join(f.ServerIDs, ","))
	}
	if len(f.OrganizationIDs) > 0 {
		q.Set("filter[organizations]", strings.Join(f.OrganizationIDs, ","))
	}
	setPageSize(q, f.PageSize)
	return q
}

func (f *SessionFilter) historyWindow() (time.Time, time.Time) {
	if f == nil {
		return defaultWindow(time.Time{}, time.Time{})
	}
	return defaultWindow(f.Start, f.Stop)
}

func (f *SessionFilter) pageSize() int {
	if f == nil {
		return 0
	}
	return f.PageSize
}

// GetPlayer fetches one player profile by id.
func (c *Client) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/players/" + playerID,
		Name:   "/players/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	player, err := decodeOne(doc, decodePlayer)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// ListPlayers returns a pager over players matching the filter. Pass nil
// to list everything visible to the token.
func (c *Client) ListPlayers(filter *PlayerFilter) *pagination.Pager[Player] {
	first := c.endpointURL("/players", filter.values())
	return pagination.NewPager(c.pageFetcher("/players"), decodePlayer, first)
}

// PlayerSessionHistory returns a pager over a player's sessions, newest
// first.
func (c *Client) PlayerSessionHistory(playerID string, filter *SessionFilter) *pagination.Pager[Session] {
	name := "/players/{id}/relationships/sessions"
	first := c.endpointURL("/players/"+playerID+"/relationships/sessions", filter.values())
	return pagination.NewPager(c.pageFetcher(name), decodeSession, first)
}

// PlayerFlags returns the flags currently attached to a player. Flags the
// server did not embed come back as id-only stubs.
func (c *Client) PlayerFlags(ctx context.Context, playerID string) ([]PlayerFlag, error) {
	q := url.Values{}
	q.Set("include", "playerFlag")

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/players/" + playerID + "/relationships/flags",
		Query:  q,
		Name:   "/players/{id}/relationships/flags",
	}, nil)
	if err != nil {
		return nil, err
	}

	assignments, err := decodeMany(doc, decodeFlagAssignment)
	if err != nil {
		return nil, err
	}

	flags := make([]PlayerFlag, 0, len(assignments))
	for _, assignment := range assignments {
		res := doc.Resolve(jsonapi.Ref{Type: TypePlayerFlag, ID: assignment.FlagID})
		flag, err := decodePlayerFlag(res)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

// AddPlayerFlag attaches flags to a player and returns the created
// assignments.
func (c *Client) AddPlayerFlag(ctx context.Context, playerID string, flagIDs ...string) ([]FlagAssignment, error) {
	refs := make([]map[string]string, 0, len(flagIDs))
	for _, id := range flagIDs {
		refs = append(refs, map[string]string{"type": TypePlayerFlag, "id": id})
	}
	body := map[string]any{"data": refs}

	doc, err := c.do(ctx, Route{
		Method: http.MethodPost,
		Path:   "/players/" + playerID + "/relationships/flags",
		Name:   "/players/{id}/relationships/flags",
	}, body)
	if err != nil {
		return nil, err
	}
	if !doc.HasData() {
		return nil, nil
	}
	return decodeMany(doc, decodeFlagAssignment)
}

// RemovePlayerFlag detaches one flag from a player.
func (c *Client) RemovePlayerFlag(ctx context.Context, playerID, flagID string) error {
	_, err := c.do(ctx, Route{
		Method: http.MethodDelete,
		Path:   "/players/" + playerID + "/relationships/flags/" + flagID,
		Name:   "/players/{id}/relationships/flags/{flagId}",
	}, nil)
	return err
}
