package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
)

// Resource type discriminators as they appear on the wire. Decoding
// enforces these: a response whose resource type does not match the
// requested model is malformed.
const (
	TypeServer       = "server"
	TypePlayer       = "player"
	TypeIdentifier   = "identifier"
	TypeSession      = "session"
	TypeBan          = "ban"
	TypeBanList      = "banList"
	TypeOrganization = "organization"
	TypeGame         = "game"
	TypePlayerNote   = "playerNote"
	TypePlayerFlag   = "playerFlag"
	TypeFlagPlayer   = "flagPlayer"
	TypeDataPoint    = "dataPoint"
	TypePlayerStats  = "organizationPlayerStats"
)

// Server status values.
const (
	ServerStatusOnline  = "online"
	ServerStatusOffline = "offline"
	ServerStatusDead    = "dead"
	ServerStatusRemoved = "removed"
	ServerStatusInvalid = "invalid"
)

// Server is a tracked game server.
type Server struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Address           string         `json:"address"`
	IP                string         `json:"ip"`
	Port              int            `json:"port"`
	PortQuery         int            `json:"portQuery"`
	Country           string         `json:"country"`
	Location          []float64      `json:"location"` // [longitude, latitude]
	Players           int            `json:"players"`
	MaxPlayers        int            `json:"maxPlayers"`
	Rank              *int           `json:"rank"` // nil when unranked
	Status            string         `json:"status"`
	Details           map[string]any `json:"details"`
	Private           bool           `json:"private"`
	QueryStatus       string         `json:"queryStatus"`
	RCONActive        *bool          `json:"rconActive"`
	RCONStatus        string         `json:"rconStatus"`
	RCONLastConnected *time.Time     `json:"rconLastConnected"`
	RCONDisconnected  *time.Time     `json:"rconDisconnected"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`

	GameID         string `json:"gameId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Player is a tracked player profile.
type Player struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Private       bool      `json:"private"`
	PositiveMatch bool      `json:"positiveMatch"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Identifier is one identity a player was seen with (steamID, BEGUID,
// ip, name, and so on).
type Identifier struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Identifier string         `json:"identifier"`
	LastSeen   time.Time      `json:"lastSeen"`
	Private    bool           `json:"private"`
	Metadata   map[string]any `json:"metadata"`

	PlayerID string `json:"playerId,omitempty"`
}

// Session is one continuous stay of a player on a server. Stop is nil
// while the player is still online.
type Session struct {
	ID        string     `json:"id"`
	Start     time.Time  `json:"start"`
	Stop      *time.Time `json:"stop"`
	FirstTime bool       `json:"firstTime"`
	Name      string     `json:"name"`
	Private   bool       `json:"private"`

	ServerID string `json:"serverId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Ban is a ban entry on a ban list. Expires is nil for permanent bans.
type Ban struct {
	ID             string          `json:"id"`
	UID            string          `json:"uid"`
	Reason         string          `json:"reason"`
	Note           string          `json:"note"`
	Timestamp      time.Time       `json:"timestamp"`
	Expires        *time.Time      `json:"expires"`
	Identifiers    []BanIdentifier `json:"identifiers"`
	OrgWide        bool            `json:"orgWide"`
	AutoAddEnabled bool            `json:"autoAddEnabled"`
	NativeEnabled  *bool           `json:"nativeEnabled"`

	OrganizationID string `json:"organizationId,omitempty"`
	ServerID       string `json:"serverId,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`
	BanListID      string `json:"banListId,omitempty"`
}

// BanIdentifier is one identifier a ban matches against. The API encodes
// these either as full objects or as bare identifier ids.
type BanIdentifier struct {
	ID         int    `json:"id,omitempty"`
	Type       string `json:"type,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Manual     bool   `json:"manual,omitempty"`
}

// UnmarshalJSON accepts the object form, a bare numeric id, and a bare
// string identifier.
func (bi *BanIdentifier) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] != '{' {
		var id int
		if err := json.Unmarshal(data, &id); err == nil {
			*bi = BanIdentifier{ID: id}
			return nil
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode ban identifier: %w", err)
		}
		*bi = BanIdentifier{Identifier: s}
		return nil
	}

	type plain BanIdentifier
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode ban identifier: %w", err)
	}
	*bi = BanIdentifier(p)
	return nil
}

// BanList groups bans under an organization with shared defaults.
type BanList struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Action                  string   `json:"action"`
	DefaultIdentifiers      []string `json:"defaultIdentifiers"`
	DefaultReasons          []string `json:"defaultReasons"`
	DefaultAutoAddEnabled   bool     `json:"defaultAutoAddEnabled"`
	DefaultNativeEnabled    bool     `json:"defaultNativeEnabled"`
	NativeBanTTL            *int     `json:"nativeBanTTL"`
	NativeBanTempMaxExpires *int     `json:"nativeBanTempMaxExpires"`
	NativeBanPermMaxExpires *int     `json:"nativeBanPermMaxExpires"`
	PermManage              bool     `json:"permManage"`
	PermCreate              bool     `json:"permCreate"`
	PermUpdate              bool     `json:"permUpdate"`
	PermDelete              bool     `json:"permDelete"`

	OrganizationID string `json:"organizationId,omitempty"`
}

// Organization is a BattleMetrics organization.
type Organization struct {
	ID                           string `json:"id"`
	Name                         string `json:"name"`
	Active                       bool   `json:"active"`
	Discoverable                 bool   `json:"discoverable"`
	DiscoverableRank             *int   `json:"discoverableRank"`
	Locale                       string `json:"locale"`
	TZ                           string `json:"tz"`
	Plan                         string `json:"plan"`
	BanTemplate                  string `json:"banTemplate"`
	MFARequired                  bool   `json:"mfaRequired"`
	DataSharingEnabled           bool   `json:"dataSharingEnabled"`
	ConsentAPIKeysRequired       bool   `json:"consentAPIKeysRequired"`
	ConsentGeoIPRequired         bool   `json:"consentGeoIPRequired"`
	ConsentOrganizationsRequired bool   `json:"consentOrganizationsRequired"`
}

// Game is a game tracked by BattleMetrics, with aggregate population
// numbers.
type Game struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Players          int            `json:"players"`
	Servers          int            `json:"servers"`
	PlayersByCountry map[string]int `json:"playersByCountry"`
	ServersByCountry map[string]int `json:"serversByCountry"`
	MinPlayers24H    float64        `json:"minPlayers24H"`
	MinPlayers7D     float64        `json:"minPlayers7D"`
	MinPlayers30D    float64        `json:"minPlayers30D"`
	MaxPlayers24H    float64        `json:"maxPlayers24H"`
	MaxPlayers7D     float64        `json:"maxPlayers7D"`
	MaxPlayers30D    float64        `json:"maxPlayers30D"`
	Metadata         GameMetadata   `json:"metadata"`
}

// GameMetadata carries per-game platform details.
type GameMetadata struct {
	AppID        int    `json:"appid"`
	GameDir      string `json:"gamedir"`
	NoPlayerList bool   `json:"noPlayerList"`
}

// Note is a player note visible to an organization.
type Note struct {
	ID             string     `json:"id"`
	Note           string     `json:"note"`
	Shared         bool       `json:"shared"`
	ClearanceLevel int        `json:"clearanceLevel"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`

	OrganizationID string `json:"organizationId,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// PlayerFlag is an organization-defined label that can be attached to
// players.
type PlayerFlag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FlagAssignment records a flag attached to a player. RemovedAt is nil
// while the flag is active.
type FlagAssignment struct {
	ID        string     `json:"id"`
	AddedAt   time.Time  `json:"addedAt"`
	RemovedAt *time.Time `json:"removedAt"`

	FlagID   string `json:"flagId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// DataPoint is one sample in a history or metrics series. Min and Max are
// set when the series was aggregated to a coarser resolution.
type DataPoint struct {
	Name      string      `json:"name"`
	Group     json.Number `json:"group"`
	Timestamp time.Time   `json:"timestamp"`
	Value     float64     `json:"value"`
	Min       *float64    `json:"min"`
	Max       *float64    `json:"max"`
}

// PlayerStats aggregates player activity across an organization's servers
// over a time window.
type PlayerStats struct {
	MinPlayers               int            `json:"minPlayers"`
	MaxPlayers               int            `json:"maxPlayers"`
	UniquePlayers            int            `json:"uniquePlayers"`
	UniquePlayersByCountry   map[string]int `json:"uniquePlayersByCountry"`
	SessionDuration          float64        `json:"sessionDuration"`
	FirstTimeSessionDuration float64        `json:"firstTimeSessionDuration"`
}

// TokenScopes is the OAuth introspection result for an API token. This
// endpoint does not speak JSON:API and uses snake_case fields.
type TokenScopes struct {
	Active    bool     `json:"active"`
	ClientID  string   `json:"client_id"`
	TokenType string   `json:"token_type"`
	Scopes    []string `json:"scopes"`
}

// decodeInto enforces the expected resource type, then unmarshals the
// attributes into dst. Mismatches and decode failures surface as
// *MalformedResponseError with the resource as payload.
func decodeInto(res jsonapi.Resource, wantType string, dst any) error {
	if res.Type != wantType {
		payload, _ := json.Marshal(res)
		return &jsonapi.MalformedResponseError{
			Reason:  fmt.Sprintf("resource has type %q where %q was expected", res.Type, wantType),
			Payload: payload,
		}
	}
	if err := res.UnmarshalAttributes(dst); err != nil {
		payload, _ := json.Marshal(res)
		return &jsonapi.MalformedResponseError{
			Reason:  fmt.Sprintf("%s attributes do not match the expected shape", wantType),
			Payload: payload,
			Err:     err,
		}
	}
	return nil
}

// relationshipID returns the id of a to-one relationship, or "" when the
// relationship is absent or empty.
func relationshipID(res jsonapi.Resource, name string) string {
	rel, ok := res.Relationship(name)
	if !ok {
		return ""
	}
	ref, ok := rel.Ref()
	if !ok {
		return ""
	}
	return ref.ID
}

func decodeServer(res jsonapi.Resource) (Server, error) {
	var s Server
	if err := decodeInto(res, TypeServer, &s); err != nil {
		return Server{}, err
	}
	s.ID = res.ID
	s.GameID = relationshipID(res, "game")
	s.OrganizationID = relationshipID(res, "organization")
	return s, nil
}

func decodePlayer(res jsonapi.Resource) (Player, error) {
	var p Player
	if err := decodeInto(res, TypePlayer, &p); err != nil {
		return Player{}, err
	}
	p.ID = res.ID
	return p, nil
}

func decodeIdentifier(res jsonapi.Resource) (Identifier, error) {
	var id Identifier
	if err := decodeInto(res, TypeIdentifier, &id); err != nil {
		return Identifier{}, err
	}
	id.ID = res.ID
	id.PlayerID = relationshipID(res, "player")
	return id, nil
}

func decodeSession(res jsonapi.Resource) (Session, error) {
	var s Session
	if err := decodeInto(res, TypeSession, &s); err != nil {
		return Session{}, err
	}
	s.ID = res.ID
	s.ServerID = relationshipID(res, "server")
	s.PlayerID = relationshipID(res, "player")
	return s, nil
}

func decodeBan(res jsonapi.Resource) (Ban, error) {
	var b Ban
	if err := decodeInto(res, TypeBan, &b); err != nil {
		return Ban{}, err
	}
	b.ID = res.ID
	b.OrganizationID = relationshipID(res, "organization")
	b.ServerID = relationshipID(res, "server")
	b.PlayerID = relationshipID(res, "player")
	b.BanListID = relationshipID(res, "banList")
	return b, nil
}

func decodeBanList(res jsonapi.Resource) (BanList, error) {
	var bl BanList
	if err := decodeInto(res, TypeBanList, &bl); err != nil {
		return BanList{}, err
	}
	bl.ID = res.ID
	bl.OrganizationID = relationshipID(res, "organization")
	return bl, nil
}

func decodeOrganization(res jsonapi.Resource) (Organization, error) {
	var o Organization
	if err := decodeInto(res, TypeOrganization, &o); err != nil {
		return Organization{}, err
	}
	o.ID = res.ID
	return o, nil
}

func decodeGame(res jsonapi.Resource) (Game, error) {
	var g Game
	if err := decodeInto(res, TypeGame, &g); err != nil {
		return Game{}, err
	}
	g.ID = res.ID
	return g, nil
}

func decodeNote(res jsonapi.Resource) (Note, error) {
	var n Note
	if err := decodeInto(res, TypePlayerNote, &n); err != nil {
		return Note{}, err
	}
	n.ID = res.ID
	n.OrganizationID = relationshipID(res, "organization")
	n.PlayerID = relationshipID(res, "player")
	n.UserID = relationshipID(res, "user")
	return n, nil
}

func decodePlayerFlag(res jsonapi.Resource) (PlayerFlag, error) {
	var f PlayerFlag
	if err := decodeInto(res, TypePlayerFlag, &f); err != nil {
		return PlayerFlag{}, err
	}
	f.ID = res.ID
	return f, nil
}

func decodeFlagAssignment(res jsonapi.Resource) (FlagAssignment, error) {
	var fa FlagAssignment
	if err := decodeInto(res, TypeFlagPlayer, &fa); err != nil {
		return FlagAssignment{}, err
	}
	fa.ID = res.ID
	fa.FlagID = relationshipID(res, "playerFlag")
	fa.PlayerID = relationshipID(res, "player")
	return fa, nil
}

func decodeDataPoint(res jsonapi.Resource) (DataPoint, error) {
	var dp DataPoint
	if err := decodeInto(res, TypeDataPoint, &dp); err != nil {
		return DataPoint{}, err
	}
	return dp, nil
}

// decodeOne extracts and decodes the primary resource of a single-resource
// document.
func decodeOne[T any](doc *jsonapi.Document, decode func(jsonapi.Resource) (T, error)) (T, error) {
	var zero T
	res, err := doc.One()
	if err != nil {
		return zero, err
	}
	return decode(*res)
}

// decodeMany decodes every resource of a collection document, preserving
// document order.
func decodeMany[T any](doc *jsonapi.Document, decode func(jsonapi.Resource) (T, error)) ([]T, error) {
	resources, err := doc.Many()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(resources))
	for _, res := range resources {
		item, err := decode(res)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
