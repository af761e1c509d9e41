package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// GameFilter narrows ListGames results.
type GameFilter struct {
	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *GameFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setPageSize(q, f.PageSize)
	return q
}

// GetGame fetches one game by id ("rust", "ark", ...).
func (c *Client) GetGame(ctx context.Context, gameID string) (*Game, error) {
	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/games/" + gameID,
		Name:   "/games/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	game, err := decodeOne(doc, decodeGame)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// ListGames returns a pager over all games BattleMetrics tracks.
func (c *Client) ListGames(filter *GameFilter) *pagination.Pager[Game] {
	first := c.endpointURL("/games", filter.values())
	return pagination.NewPager(c.pageFetcher("/games"), decodeGame, first)
}

// GameMetrics returns samples for one named metric ("games.rust.players",
// "games.rust.players.steam", ...) over the window.
func (c *Client) GameMetrics(ctx context.Context, metric string, window *HistoryWindow) ([]DataPoint, error) {
	start, stop := window.window()

	q := url.Values{}
	q.Set("metrics[0][name]", metric)
	setRange(q, "metrics[0][range]", start, stop)
	if res := window.resolution(); res != "" {
		q.Set("metrics[0][resolution]", res)
	}
	q.Set("fields[dataPoint]", "name,group,timestamp,value")

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/metrics",
		Query:  q,
		Name:   "/metrics",
	}, nil)
	if err != nil {
		return nil, err
	}
	return decodeMany(doc, decodeDataPoint)
}
