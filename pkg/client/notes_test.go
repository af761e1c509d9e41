package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func noteDoc(id, text string) string {
	doc := map[string]any{
		"data": map[string]any{
			"type":       "playerNote",
			"id":         id,
			"attributes": map[string]any{"note": text, "shared": true, "clearanceLevel": 0},
		},
	}
	raw, _ := json.Marshal(doc)
	return string(raw)
}

func TestAddNote(t *testing.T) {
	var method, path string
	var body map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(noteDoc("note-1", "watch this one")))
	}))

	note, err := client.AddNote(context.Background(), "555", &NoteCreate{
		Note:           "watch this one",
		Shared:         true,
		OrganizationID: "9001",
	})
	if err != nil {
		t.Fatalf("AddNote() failed: %v", err)
	}

	if method != http.MethodPost || path != "/players/555/relationships/notes" {
		t.Errorf("Request = %s %s", method, path)
	}
	if note.ID != "note-1" {
		t.Errorf("ID = %q", note.ID)
	}

	data := body["data"].(map[string]any)
	if data["type"] != "playerNote" {
		t.Errorf("data.type = %v", data["type"])
	}
	attrs := data["attributes"].(map[string]any)
	if attrs["note"] != "watch this one" || attrs["shared"] != true {
		t.Errorf("attributes = %v", attrs)
	}
	org := data["relationships"].(map[string]any)["organization"].(map[string]any)["data"].(map[string]any)
	if org["id"] != "9001" {
		t.Errorf("organization relationship = %v", org)
	}
}

func TestAddNote_RequiresOrganization(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should reach the server")
	}))

	if _, err := client.AddNote(context.Background(), "555", &NoteCreate{Note: "x"}); err == nil {
		t.Error("Expected error without an organization id")
	}
}

func TestUpdateNote_Replace(t *testing.T) {
	var requests int
	var body map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method == http.MethodPatch {
			json.NewDecoder(r.Body).Decode(&body)
		}
		w.Write([]byte(noteDoc("note-1", "new text")))
	}))

	text := "new text"
	_, err := client.UpdateNote(context.Background(), "555", "note-1", &NoteUpdate{Note: &text})
	if err != nil {
		t.Fatalf("UpdateNote() failed: %v", err)
	}

	// A plain replace needs no read first
	if requests != 1 {
		t.Errorf("Requests = %d, want 1", requests)
	}
	attrs := body["data"].(map[string]any)["attributes"].(map[string]any)
	if attrs["note"] != "new text" {
		t.Errorf("note = %v", attrs["note"])
	}
}

func TestUpdateNote_Append(t *testing.T) {
	var patched map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(noteDoc("note-1", "existing text")))
		case http.MethodPatch:
			json.NewDecoder(r.Body).Decode(&patched)
			w.Write([]byte(noteDoc("note-1", "existing text\nappended")))
		}
	}))

	text := "appended"
	note, err := client.UpdateNote(context.Background(), "555", "note-1", &NoteUpdate{
		Note:   &text,
		Append: true,
	})
	if err != nil {
		t.Fatalf("UpdateNote() failed: %v", err)
	}

	attrs := patched["data"].(map[string]any)["attributes"].(map[string]any)
	if attrs["note"] != "existing text\nappended" {
		t.Errorf("Patched note = %v, want existing text and new text on separate lines", attrs["note"])
	}
	if note.Note != "existing text\nappended" {
		t.Errorf("Note = %q", note.Note)
	}
}

func TestUpdateNote_SharedOnly(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(noteDoc("note-1", "unchanged")))
	}))

	shared := false
	_, err := client.UpdateNote(context.Background(), "555", "note-1", &NoteUpdate{Shared: &shared})
	if err != nil {
		t.Fatalf("UpdateNote() failed: %v", err)
	}

	attrs := body["data"].(map[string]any)["attributes"].(map[string]any)
	if attrs["shared"] != false {
		t.Errorf("shared = %v, want false", attrs["shared"])
	}
	if _, present := attrs["note"]; present {
		t.Error("note should not be sent when unchanged")
	}
}

func TestDeleteNote(t *testing.T) {
	var method, path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.DeleteNote(context.Background(), "555", "note-1"); err != nil {
		t.Fatalf("DeleteNote() failed: %v", err)
	}

	if method != http.MethodDelete {
		t.Errorf("Method = %q, want DELETE", method)
	}
	if path != "/players/555/relationships/notes/note-1" {
		t.Errorf("Path = %q", path)
	}
}

func TestListPlayerNotes(t *testing.T) {
	var path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"data": [
			{"type": "playerNote", "id": "note-1", "attributes": {"note": "first", "shared": true}},
			{"type": "playerNote", "id": "note-2", "attributes": {"note": "second", "shared": false}}
		], "links": {}}`))
	}))

	notes, err := client.ListPlayerNotes("555", 0).All(context.Background())
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}

	if path != "/players/555/relationships/notes" {
		t.Errorf("Path = %q", path)
	}
	if len(notes) != 2 || notes[0].Note != "first" || notes[1].Note != "second" {
		t.Errorf("Notes = %+v", notes)
	}
}
