package pagination

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
)

// ErrNoMorePages is returned by Next and NextPage once the collection is
// exhausted.
var ErrNoMorePages = errors.New("no more pages")

// FetchFunc fetches one page by its full URL and returns the parsed document.
// The client supplies this, so every page fetch passes through the same rate
// limit gate, cache, and error mapping as a direct call.
type FetchFunc func(ctx context.Context, pageURL string) (*jsonapi.Document, error)

// DecodeFunc converts one resource of the collection into a typed value.
type DecodeFunc[T any] func(jsonapi.Resource) (T, error)

// Pager iterates a paginated collection lazily. No request is made until the
// first Next, NextPage, or All call. Iteration is forward-only: consumed
// pages cannot be revisited. A failed page fetch does not advance the
// cursor, so the call may be repeated.
//
// A Pager is not safe for concurrent use.
type Pager[T any] struct {
	fetch  FetchFunc
	decode DecodeFunc[T]
	next   string
	buf    []T
	pos    int
}

// NewPager creates a pager starting at firstURL.
func NewPager[T any](fetch FetchFunc, decode DecodeFunc[T], firstURL string) *Pager[T] {
	return &Pager[T]{
		fetch:  fetch,
		decode: decode,
		next:   firstURL,
	}
}

// HasNext reports whether more items may be available. Before the first
// fetch it is optimistic; afterwards it reflects the buffered items and the
// presence of a next link.
func (p *Pager[T]) HasNext() bool {
	return p.pos < len(p.buf) || p.next != ""
}

// Next returns the next item of the collection, fetching pages as needed.
// It returns ErrNoMorePages once the collection is exhausted.
func (p *Pager[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for p.pos >= len(p.buf) {
		if p.next == "" {
			return zero, ErrNoMorePages
		}
		if err := p.fetchPage(ctx); err != nil {
			return zero, err
		}
	}
	item := p.buf[p.pos]
	p.pos++
	return item, nil
}

// NextPage fetches and returns the next whole page of items. Empty pages are
// skipped. It returns ErrNoMorePages once the collection is exhausted.
func (p *Pager[T]) NextPage(ctx context.Context) ([]T, error) {
	// Serve out a partially consumed buffer first so Next and NextPage
	// can be mixed without losing items.
	if p.pos < len(p.buf) {
		page := p.buf[p.pos:]
		p.pos = len(p.buf)
		return page, nil
	}
	for {
		if p.next == "" {
			return nil, ErrNoMorePages
		}
		if err := p.fetchPage(ctx); err != nil {
			return nil, err
		}
		if len(p.buf) > 0 {
			page := p.buf
			p.pos = len(p.buf)
			return page, nil
		}
	}
}

// All drains the remaining pages and returns every item in page order.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	for {
		page, err := p.NextPage(ctx)
		if errors.Is(err, ErrNoMorePages) {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, page...)
	}
}

// fetchPage retrieves the page at the current cursor and refills the buffer.
// The cursor advances only on success.
func (p *Pager[T]) fetchPage(ctx context.Context) error {
	doc, err := p.fetch(ctx, p.next)
	if err != nil {
		return err
	}

	resources, err := doc.Many()
	if err != nil {
		return err
	}

	buf := make([]T, 0, len(resources))
	for _, res := range resources {
		item, err := p.decode(res)
		if err != nil {
			return err
		}
		buf = append(buf, item)
	}

	log.Debug().
		Int("items", len(buf)).
		Bool("has_next", doc.Links.Next != "").
		Msg("Fetched collection page")

	p.buf = buf
	p.pos = 0
	p.next = doc.Links.Next
	return nil
}
