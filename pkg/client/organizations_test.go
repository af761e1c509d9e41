package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGetOrganization(t *testing.T) {
	var path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{
			"data": {
				"type": "organization",
				"id": "9001",
				"attributes": {"name": "Example Org", "active": true, "tz": "Europe/Berlin"}
			}
		}`))
	}))

	org, err := client.GetOrganization(context.Background(), "9001")
	if err != nil {
		t.Fatalf("GetOrganization() failed: %v", err)
	}

	if path != "/organizations/9001" {
		t.Errorf("Path = %q", path)
	}
	if org.ID != "9001" || org.Name != "Example Org" {
		t.Errorf("Organization = %+v", org)
	}
}

func TestListOrganizations(t *testing.T) {
	var query url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"data": [
			{"type": "organization", "id": "1", "attributes": {"name": "First"}},
			{"type": "organization", "id": "2", "attributes": {"name": "Second"}}
		], "links": {}}`))
	}))

	orgs, err := client.ListOrganizations(&OrganizationFilter{Search: "example"}).All(context.Background())
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}

	if got := query.Get("filter[search]"); got != "example" {
		t.Errorf("filter[search] = %q", got)
	}
	if len(orgs) != 2 || orgs[1].Name != "Second" {
		t.Errorf("Organizations = %+v", orgs)
	}
}

func TestOrganizationPlayerStats(t *testing.T) {
	var path string
	var query url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.Query()
		w.Write([]byte(`{
			"data": {
				"type": "organizationPlayerStats",
				"id": "9001",
				"attributes": {
					"minPlayers": 12,
					"maxPlayers": 96,
					"uniquePlayers": 1893,
					"uniquePlayersByCountry": {"DE": 501, "US": 320},
					"sessionDuration": 5400.5,
					"firstTimeSessionDuration": 1200.25
				}
			}
		}`))
	}))

	window := &HistoryWindow{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Stop:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
	}
	stats, err := client.OrganizationPlayerStats(context.Background(), "9001", window)
	if err != nil {
		t.Fatalf("OrganizationPlayerStats() failed: %v", err)
	}

	if path != "/organizations/9001/stats/players" {
		t.Errorf("Path = %q", path)
	}
	wantRange := "2024-06-01T00:00:00Z:2024-06-08T00:00:00Z"
	if got := query.Get("filter[range]"); got != wantRange {
		t.Errorf("filter[range] = %q, want %q", got, wantRange)
	}
	if stats.UniquePlayers != 1893 {
		t.Errorf("UniquePlayers = %d, want 1893", stats.UniquePlayers)
	}
	if stats.UniquePlayersByCountry["DE"] != 501 {
		t.Errorf("UniquePlayersByCountry[DE] = %d, want 501", stats.UniquePlayersByCountry["DE"])
	}
	if stats.SessionDuration != 5400.5 {
		t.Errorf("SessionDuration = %v, want 5400.5", stats.SessionDuration)
	}
}

func TestOrganizationPlayerStats_WrongType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"type": "organization", "id": "9001", "attributes": {"name": "nope"}}}`))
	}))

	_, err := client.OrganizationPlayerStats(context.Background(), "9001", nil)
	if err == nil {
		t.Fatal("Expected error for a mismatched resource type")
	}
	if !strings.Contains(err.Error(), "organizationPlayerStats") {
		t.Errorf("Error = %v, should name the expected type", err)
	}
}
