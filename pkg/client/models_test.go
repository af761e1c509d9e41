package client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
)

func resourceFromJSON(t *testing.T, raw string) jsonapi.Resource {
	t.Helper()
	var res jsonapi.Resource
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		t.Fatalf("Failed to build resource fixture: %v", err)
	}
	return res
}

func TestDecodeServer(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "server",
		"id": "42",
		"attributes": {
			"name": "Rusty Island",
			"ip": "198.51.100.7",
			"port": 28015,
			"players": 87,
			"maxPlayers": 100,
			"rank": 12,
			"location": [13.4, 52.5],
			"status": "online",
			"country": "DE",
			"details": {"map": "Procedural Map", "rust_type": "official"},
			"createdAt": "2020-01-15T10:00:00Z",
			"updatedAt": "2024-06-01T08:30:00Z"
		},
		"relationships": {
			"game": {"data": {"type": "game", "id": "rust"}},
			"organization": {"data": {"type": "organization", "id": "9001"}}
		}
	}`)

	server, err := decodeServer(res)
	if err != nil {
		t.Fatalf("decodeServer() failed: %v", err)
	}

	if server.ID != "42" {
		t.Errorf("ID = %q, want %q", server.ID, "42")
	}
	if server.Name != "Rusty Island" {
		t.Errorf("Name = %q, want %q", server.Name, "Rusty Island")
	}
	if server.Players != 87 || server.MaxPlayers != 100 {
		t.Errorf("Players = %d/%d, want 87/100", server.Players, server.MaxPlayers)
	}
	if server.Rank == nil || *server.Rank != 12 {
		t.Errorf("Rank = %v, want 12", server.Rank)
	}
	if len(server.Location) != 2 || server.Location[0] != 13.4 {
		t.Errorf("Location = %v, want [13.4 52.5]", server.Location)
	}
	if server.Status != ServerStatusOnline {
		t.Errorf("Status = %q, want %q", server.Status, ServerStatusOnline)
	}
	if server.Details["map"] != "Procedural Map" {
		t.Errorf("Details[map] = %v, want Procedural Map", server.Details["map"])
	}
	if server.GameID != "rust" {
		t.Errorf("GameID = %q, want %q", server.GameID, "rust")
	}
	if server.OrganizationID != "9001" {
		t.Errorf("OrganizationID = %q, want %q", server.OrganizationID, "9001")
	}
}

func TestDecodeServer_NullableFields(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "server",
		"id": "7",
		"attributes": {"name": "Fresh", "rank": null, "rconActive": null, "status": "offline"}
	}`)

	server, err := decodeServer(res)
	if err != nil {
		t.Fatalf("decodeServer() failed: %v", err)
	}

	if server.Rank != nil {
		t.Errorf("Rank = %v, want nil for an unranked server", server.Rank)
	}
	if server.RCONActive != nil {
		t.Errorf("RCONActive = %v, want nil", server.RCONActive)
	}
	if server.GameID != "" {
		t.Errorf("GameID = %q, want empty without a relationship", server.GameID)
	}
}

func TestDecodeServer_TypeMismatch(t *testing.T) {
	res := resourceFromJSON(t, `{"type": "player", "id": "42", "attributes": {"name": "nope"}}`)

	_, err := decodeServer(res)

	var malformed *jsonapi.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected *MalformedResponseError, got %T: %v", err, err)
	}
	if len(malformed.Payload) == 0 {
		t.Error("Payload should carry the offending resource")
	}
}

func TestDecodeBan(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "ban",
		"id": "ban-1",
		"attributes": {
			"uid": "abc123def45678",
			"reason": "cheating",
			"note": "caught on stream",
			"timestamp": "2024-05-01T12:00:00Z",
			"expires": null,
			"identifiers": [1001, {"type": "steamID", "identifier": "76561198000000000", "manual": true}, "legacy-id"],
			"orgWide": true,
			"autoAddEnabled": false,
			"nativeEnabled": null
		},
		"relationships": {
			"organization": {"data": {"type": "organization", "id": "9001"}},
			"banList": {"data": {"type": "banList", "id": "list-1"}},
			"player": {"data": {"type": "player", "id": "555"}}
		}
	}`)

	ban, err := decodeBan(res)
	if err != nil {
		t.Fatalf("decodeBan() failed: %v", err)
	}

	if ban.UID != "abc123def45678" {
		t.Errorf("UID = %q", ban.UID)
	}
	if ban.Expires != nil {
		t.Errorf("Expires = %v, want nil for a permanent ban", ban.Expires)
	}
	if !ban.OrgWide {
		t.Error("OrgWide = false, want true")
	}
	if ban.BanListID != "list-1" || ban.PlayerID != "555" {
		t.Errorf("Relationship ids = %q/%q, want list-1/555", ban.BanListID, ban.PlayerID)
	}
	if len(ban.Identifiers) != 3 {
		t.Fatalf("Identifiers = %d entries, want 3", len(ban.Identifiers))
	}
	if ban.Identifiers[0].ID != 1001 {
		t.Errorf("Identifiers[0].ID = %d, want 1001", ban.Identifiers[0].ID)
	}
	if ban.Identifiers[1].Type != "steamID" || !ban.Identifiers[1].Manual {
		t.Errorf("Identifiers[1] = %+v, want the steamID object", ban.Identifiers[1])
	}
	if ban.Identifiers[2].Identifier != "legacy-id" {
		t.Errorf("Identifiers[2].Identifier = %q, want legacy-id", ban.Identifiers[2].Identifier)
	}
}

func TestBanIdentifier_UnmarshalJSON_Invalid(t *testing.T) {
	var bi BanIdentifier
	if err := json.Unmarshal([]byte(`true`), &bi); err == nil {
		t.Error("Expected error for a boolean identifier")
	}
}

func TestDecodeSession(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "session",
		"id": "sess-1",
		"attributes": {
			"start": "2024-06-01T18:00:00Z",
			"stop": null,
			"firstTime": true,
			"name": "PlayerOne",
			"private": false
		},
		"relationships": {
			"server": {"data": {"type": "server", "id": "42"}},
			"player": {"data": {"type": "player", "id": "555"}}
		}
	}`)

	session, err := decodeSession(res)
	if err != nil {
		t.Fatalf("decodeSession() failed: %v", err)
	}

	if session.Stop != nil {
		t.Errorf("Stop = %v, want nil while the player is online", session.Stop)
	}
	if !session.FirstTime {
		t.Error("FirstTime = false, want true")
	}
	if session.ServerID != "42" || session.PlayerID != "555" {
		t.Errorf("Relationship ids = %q/%q", session.ServerID, session.PlayerID)
	}
}

func TestDecodeGame(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "game",
		"id": "rust",
		"attributes": {
			"name": "Rust",
			"players": 91234,
			"servers": 12345,
			"playersByCountry": {"DE": 9000, "US": 21000},
			"maxPlayers24H": 130000.0,
			"minPlayers24H": 60000.0,
			"metadata": {"appid": 252490, "gamedir": "rust", "noPlayerList": false}
		}
	}`)

	game, err := decodeGame(res)
	if err != nil {
		t.Fatalf("decodeGame() failed: %v", err)
	}

	if game.ID != "rust" || game.Name != "Rust" {
		t.Errorf("Game = %q/%q", game.ID, game.Name)
	}
	if game.PlayersByCountry["DE"] != 9000 {
		t.Errorf("PlayersByCountry[DE] = %d, want 9000", game.PlayersByCountry["DE"])
	}
	if game.Metadata.AppID != 252490 {
		t.Errorf("AppID = %d, want 252490", game.Metadata.AppID)
	}
}

func TestDecodeDataPoint(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "dataPoint",
		"attributes": {
			"timestamp": "2024-06-01T00:00:00Z",
			"value": 87.0,
			"min": 40.0,
			"max": 99.0
		}
	}`)

	dp, err := decodeDataPoint(res)
	if err != nil {
		t.Fatalf("decodeDataPoint() failed: %v", err)
	}

	if dp.Value != 87 {
		t.Errorf("Value = %v, want 87", dp.Value)
	}
	if dp.Min == nil || *dp.Min != 40 {
		t.Errorf("Min = %v, want 40", dp.Min)
	}
	if dp.Max == nil || *dp.Max != 99 {
		t.Errorf("Max = %v, want 99", dp.Max)
	}
}

func TestDecodeOrganization(t *testing.T) {
	res := resourceFromJSON(t, `{
		"type": "organization",
		"id": "9001",
		"attributes": {
			"name": "Example Org",
			"active": true,
			"discoverable": true,
			"discoverableRank": 3,
			"tz": "Europe/Berlin",
			"mfaRequired": true
		}
	}`)

	org, err := decodeOrganization(res)
	if err != nil {
		t.Fatalf("decodeOrganization() failed: %v", err)
	}

	if org.Name != "Example Org" || !org.Active {
		t.Errorf("Organization = %+v", org)
	}
	if org.DiscoverableRank == nil || *org.DiscoverableRank != 3 {
		t.Errorf("DiscoverableRank = %v, want 3", org.DiscoverableRank)
	}
	if org.TZ != "Europe/Berlin" {
		t.Errorf("TZ = %q", org.TZ)
	}
}

func TestDecodeMany_StopsOnBadResource(t *testing.T) {
	doc, err := jsonapi.ParseDocument([]byte(`{
		"data": [
			{"type": "player", "id": "1", "attributes": {"name": "One"}},
			{"type": "server", "id": "2", "attributes": {"name": "Not a player"}}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseDocument() failed: %v", err)
	}

	_, err = decodeMany(doc, decodePlayer)

	var malformed *jsonapi.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected *MalformedResponseError, got %T: %v", err, err)
	}
}

func TestDecodeOne_RejectsCollection(t *testing.T) {
	doc, err := jsonapi.ParseDocument([]byte(`{"data": [{"type": "server", "id": "1"}]}`))
	if err != nil {
		t.Fatalf("ParseDocument() failed: %v", err)
	}

	_, err = decodeOne(doc, decodeServer)

	var malformed *jsonapi.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected *MalformedResponseError, got %T: %v", err, err)
	}
}
