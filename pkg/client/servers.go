package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// ServerFilter narrows ListServers results. The zero value lists all
// servers with the API's default page size.
type ServerFilter struct {
	// Search matches against server names.
	Search string

	// Game restricts results to one game ("rust", "ark", ...).
	Game string

	// Countries restricts results to servers in any of the given ISO
	// country codes.
	Countries []string

	// Status filters by server status ("online", "offline", "dead").
	Status string

	// RCONOnly restricts results to servers with an active RCON
	// connection.
	RCONOnly bool

	// OrganizationID restricts results to one organization's servers.
	OrganizationID string

	// Sort orders results ("rank", "-rank", "players", "-players").
	Sort string

	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *ServerFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Search != "" {
		q.Set("filter[search]", f.Search)
	}
	if f.Game != "" {
		q.Set("filter[game]", f.Game)
	}
	for i, country := range f.Countries {
		q.Set("filter[countries][or]["+strconv.Itoa(i)+"]", country)
	}
	if f.Status != "" {
		q.Set("filter[status]", f.Status)
	}
	if f.RCONOnly {
		q.Set("filter[rcon]", "true")
	}
	if f.OrganizationID != "" {
		q.Set("filter[organizations]", f.OrganizationID)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	setPageSize(q, f.PageSize)
	return q
}

// HistoryWindow bounds a history or metrics query. The zero value covers
// the last 24 hours at the API's native resolution.
type HistoryWindow struct {
	Start time.Time
	Stop  time.Time

	// Resolution selects the sample interval in minutes ("30", "60",
	// "1440") or "raw". Empty keeps the API default.
	Resolution string
}

func (w *HistoryWindow) window() (time.Time, time.Time) {
	if w == nil {
		return defaultWindow(time.Time{}, time.Time{})
	}
	return defaultWindow(w.Start, w.Stop)
}

func (w *HistoryWindow) resolution() string {
	if w == nil {
		return ""
	}
	return w.Resolution
}

// GetServer fetches one server by id. Related resources named in include
// ("game", "organization", ...) are embedded server-side; relationship ids
// are populated on the returned Server either way.
func (c *Client) GetServer(ctx context.Context, serverID string, include ...string) (*Server, error) {
	q := url.Values{}
	if len(include) > 0 {
		q.Set("include", strings.Join(include, ","))
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/servers/" + serverID,
		Query:  q,
		Name:   "/servers/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	server, err := decodeOne(doc, decodeServer)
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// ServerPlayer is a player currently on a server, with the identifiers
// they were seen under (steam id, BattlEye GUID, name, ...).
type ServerPlayer struct {
	Player
	Identifiers []Identifier
}

// ServerPlayerList returns the players currently online on a server. The
// API embeds them as included resources of the server document.
func (c *Client) ServerPlayerList(ctx context.Context, serverID string) ([]ServerPlayer, error) {
	q := url.Values{}
	q.Set("include", "player,identifier")

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/servers/" + serverID,
		Query:  q,
		Name:   "/servers/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var players []ServerPlayer
	for _, res := range doc.Included {
		if res.Type != TypePlayer {
			continue
		}
		p, err := decodePlayer(res)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(players)
		players = append(players, ServerPlayer{Player: p})
	}
	for _, res := range doc.Included {
		if res.Type != TypeIdentifier {
			continue
		}
		ident, err := decodeIdentifier(res)
		if err != nil {
			return nil, err
		}
		if i, ok := index[ident.PlayerID]; ok {
			players[i].Identifiers = append(players[i].Identifiers, ident)
		}
	}
	return players, nil
}

// ListServers returns a pager over servers matching the filter. Pages are
// fetched lazily as the pager is consumed; pass nil to list everything.
func (c *Client) ListServers(filter *ServerFilter) *pagination.Pager[Server] {
	first := c.endpointURL("/servers", filter.values())
	return pagination.NewPager(c.pageFetcher("/servers"), decodeServer, first)
}

// ForceServerUpdate asks BattleMetrics to query the server immediately
// instead of waiting for the next scheduled poll.
func (c *Client) ForceServerUpdate(ctx context.Context, serverID string) error {
	_, err := c.do(ctx, Route{
		Method: http.MethodPost,
		Path:   "/servers/" + serverID + "/force-update",
		Name:   "/servers/{id}/force-update",
	}, nil)
	return err
}

// ServerPlayerCountHistory returns player count samples for a server over
// the window.
func (c *Client) ServerPlayerCountHistory(ctx context.Context, serverID string, window *HistoryWindow) ([]DataPoint, error) {
	return c.serverHistory(ctx, serverID, "player-count-history", window, true)
}

// ServerRankHistory returns rank samples for a server over the window.
func (c *Client) ServerRankHistory(ctx context.Context, serverID string, window *HistoryWindow) ([]DataPoint, error) {
	return c.serverHistory(ctx, serverID, "rank-history", window, false)
}

// ServerTimePlayedHistory returns total time played per day on a server
// over the window.
func (c *Client) ServerTimePlayedHistory(ctx context.Context, serverID string, window *HistoryWindow) ([]DataPoint, error) {
	return c.serverHistory(ctx, serverID, "time-played-history", window, false)
}

// ServerFirstTimeHistory returns first-time player counts per day on a
// server over the window.
func (c *Client) ServerFirstTimeHistory(ctx context.Context, serverID string, window *HistoryWindow) ([]DataPoint, error) {
	return c.serverHistory(ctx, serverID, "first-time-history", window, false)
}

// ServerUniquePlayerHistory returns unique player counts per day on a
// server over the window.
func (c *Client) ServerUniquePlayerHistory(ctx context.Context, serverID string, window *HistoryWindow) ([]DataPoint, error) {
	return c.serverHistory(ctx, serverID, "unique-player-history", window, false)
}

func (c *Client) serverHistory(ctx context.Context, serverID, history string, window *HistoryWindow, withResolution bool) ([]DataPoint, error) {
	start, stop := window.window()

	q := url.Values{}
	q.Set("start", formatTime(start))
	q.Set("stop", formatTime(stop))
	if withResolution {
		if res := window.resolution(); res != "" {
			q.Set("resolution", res)
		}
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/servers/" + serverID + "/" + history,
		Query:  q,
		Name:   "/servers/{id}/" + history,
	}, nil)
	if err != nil {
		return nil, err
	}
	return decodeMany(doc, decodeDataPoint)
}

// ServerSessionHistory returns a pager over play sessions on a server,
// newest first. Filter start and stop bound the window; the server and
// organization filters do not apply here.
func (c *Client) ServerSessionHistory(serverID string, filter *SessionFilter) *pagination.Pager[Session] {
	start, stop := filter.historyWindow()

	q := url.Values{}
	q.Set("start", formatTime(start))
	q.Set("stop", formatTime(stop))
	q.Set("include", "player")
	setPageSize(q, filter.pageSize())

	name := "/servers/{id}/relationships/sessions"
	first := c.endpointURL("/servers/"+serverID+"/relationships/sessions", q)
	return pagination.NewPager(c.pageFetcher(name), decodeSession, first)
}
