package client

import (
	"net/url"
	"strconv"
	"time"
)

// Route describes one API request: method, path relative to the API origin,
// and query parameters. URL, when set, overrides the origin entirely (used
// for pagination cursors and the OAuth endpoint, which live on a different
// host).
type Route struct {
	Method string
	Path   string
	Query  url.Values
	URL    string

	// Name is the metric label for this route, with path parameters left
	// as placeholders ("/servers/{id}"). Defaults to Path.
	Name string
}

func (r Route) metricName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}

// timeFormat is the UTC timestamp layout the API expects in query
// parameters and request bodies.
const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// setPageSize adds page[size] when size is positive; the API default (10)
// applies otherwise.
func setPageSize(q url.Values, size int) {
	if size > 0 {
		q.Set("page[size]", strconv.Itoa(size))
	}
}

// setRange adds a start:stop range parameter under the given key.
func setRange(q url.Values, key string, start, stop time.Time) {
	q.Set(key, formatTime(start)+":"+formatTime(stop))
}

func defaultWindow(start, stop time.Time) (time.Time, time.Time) {
	if stop.IsZero() {
		stop = time.Now()
	}
	if start.IsZero() {
		start = stop.Add(-24 * time.Hour)
	}
	return start, stop
}
