package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
)

// OAuthIntrospectURL is the token introspection endpoint. It lives on the
// main site rather than the API origin and does not speak JSON:API.
const OAuthIntrospectURL = "https://www.battlemetrics.com/oauth/introspect"

// CheckTokenScopes introspects a token and reports whether it is active
// and which scopes it carries. An empty token introspects the client's
// own token.
func (c *Client) CheckTokenScopes(ctx context.Context, token string) (*TokenScopes, error) {
	if token == "" {
		token = c.token
	}

	body := map[string]string{"token": token}

	data, err := c.doRaw(ctx, Route{
		Method: http.MethodPost,
		Path:   "/oauth/introspect",
		URL:    OAuthIntrospectURL,
		Name:   "/oauth/introspect",
	}, body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data TokenScopes `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &jsonapi.MalformedResponseError{
			Reason:  "introspection response is not valid JSON",
			Payload: data,
			Err:     err,
		}
	}
	return &envelope.Data, nil
}
