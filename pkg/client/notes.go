package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

// NoteCreate describes a new player note.
type NoteCreate struct {
	Note   string
	Shared bool

	// ClearanceLevel limits which organization members can see the note.
	// Zero keeps the API default.
	ClearanceLevel int

	// OrganizationID owns the note.
	OrganizationID string
}

// NoteUpdate carries the changes for UpdateNote. Nil fields keep the
// current value.
type NoteUpdate struct {
	Note           *string
	Shared         *bool
	ClearanceLevel *int

	// Append adds Note on a new line under the existing text instead of
	// replacing it. This reads the current note first, so it costs one
	// extra request.
	Append bool
}

// ListPlayerNotes returns a pager over the notes attached to a player.
func (c *Client) ListPlayerNotes(playerID string, pageSize int) *pagination.Pager[Note] {
	q := url.Values{}
	setPageSize(q, pageSize)

	name := "/players/{id}/relationships/notes"
	first := c.endpointURL("/players/"+playerID+"/relationships/notes", q)
	return pagination.NewPager(c.pageFetcher(name), decodeNote, first)
}

// GetNote fetches one note on a player.
func (c *Client) GetNote(ctx context.Context, playerID, noteID string) (*Note, error) {
	doc, err := c.do(ctx, Route{
		Method: http.MethodGet,
		Path:   "/players/" + playerID + "/relationships/notes/" + noteID,
		Name:   "/players/{id}/relationships/notes/{noteId}",
	}, nil)
	if err != nil {
		return nil, err
	}

	note, err := decodeOne(doc, decodeNote)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// AddNote attaches a note to a player on behalf of an organization.
func (c *Client) AddNote(ctx context.Context, playerID string, note *NoteCreate) (*Note, error) {
	if note == nil {
		return nil, fmt.Errorf("note is required")
	}
	if note.OrganizationID == "" {
		return nil, fmt.Errorf("organization id is required")
	}

	attributes := map[string]any{
		"note":   note.Note,
		"shared": note.Shared,
	}
	if note.ClearanceLevel > 0 {
		attributes["clearanceLevel"] = note.ClearanceLevel
	}

	body := map[string]any{
		"data": map[string]any{
			"type":       TypePlayerNote,
			"attributes": attributes,
			"relationships": map[string]any{
				"organization": toOne(TypeOrganization, note.OrganizationID),
			},
		},
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodPost,
		Path:   "/players/" + playerID + "/relationships/notes",
		Name:   "/players/{id}/relationships/notes",
	}, body)
	if err != nil {
		return nil, err
	}

	created, err := decodeOne(doc, decodeNote)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateNote patches a note and returns the updated entry.
func (c *Client) UpdateNote(ctx context.Context, playerID, noteID string, update *NoteUpdate) (*Note, error) {
	if update == nil {
		return nil, fmt.Errorf("update is required")
	}

	attributes := map[string]any{}
	if update.Note != nil {
		text := *update.Note
		if update.Append {
			existing, err := c.GetNote(ctx, playerID, noteID)
			if err != nil {
				return nil, err
			}
			text = existing.Note + "\n" + text
		}
		attributes["note"] = text
	}
	if update.Shared != nil {
		attributes["shared"] = *update.Shared
	}
	if update.ClearanceLevel != nil {
		attributes["clearanceLevel"] = *update.ClearanceLevel
	}
	if len(attributes) == 0 {
		return nil, fmt.Errorf("update has no changes")
	}

	body := map[string]any{
		"data": map[string]any{
			"type":       TypePlayerNote,
			"id":         noteID,
			"attributes": attributes,
		},
	}

	doc, err := c.do(ctx, Route{
		Method: http.MethodPatch,
		Path:   "/players/" + playerID + "/relationships/notes/" + noteID,
		Name:   "/players/{id}/relationships/notes/{noteId}",
	}, body)
	if err != nil {
		return nil, err
	}

	updated, err := decodeOne(doc, decodeNote)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteNote removes a note from a player.
func (c *Client) DeleteNote(ctx context.Context, playerID, noteID string) error {
	_, err := c.do(ctx, Route{
		Method: http.MethodDelete,
		Path:   "/players/" + playerID + "/relationships/notes/" + noteID,
		Name:   "/players/{id}/relationships/notes/{noteId}",
	}, nil)
	return err
}
