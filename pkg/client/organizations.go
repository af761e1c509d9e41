package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// OrganizationFilter narrows ListOrganizations results.
type OrganizationFilter struct {
	// Search matches organization names.
	Search string

	// Sort orders results.
	Sort string

	// PageSize sets page[size]. Zero keeps the API default.
	PageSize int
}

func (f *OrganizationFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Search != "" {
		q.Set("filter[search]", f.Search)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	setPageSize(q, f.PageSize)
	return q
}

// GetOrganization fetches one organization by id.
func (c *Client) GetOrganization(ctx context.Context, organizationID string) (*Organization, error) {
	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/organizations/" + organizationID,
		Name:   "/organizations/{id}",
	}, nil)
	if err != nil {
		return nil, err
	}

	org, err := decodeOne(doc, decodeOrganization)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListOrganizations returns a pager over organizations visible to the
// token.
func (c *Client) ListOrganizations(filter *OrganizationFilter) *pagination.Pager[Organization] {
	first := c.endpointURL("/organizations", filter.values())
	return pagination.NewPager(c.pageFetcher("/organizations"), decodeOrganization, first)
}

// OrganizationPlayerStats aggregates player activity across an
// organization's servers over the window.
func (c *Client) OrganizationPlayerStats(ctx context.Context, organizationID string, window *HistoryWindow) (*PlayerStats, error) {
	start, stop := window.window()

	q := url.Values{}
	setRange(q, "filter[range]", start, stop)

	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/organizations/" + organizationID + "/stats/players",
		Query:  q,
		Name:   "/organizations/{id}/stats/players",
	}, nil)
	if err != nil {
		return nil, err
	}

	res, err := doc.One()
	if err != nil {
		return nil, err
	}

	var stats PlayerStats
	if err := decodeInto(*res, TypePlayerStats, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
