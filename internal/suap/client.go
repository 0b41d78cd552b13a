// Package suap talks to the SUAP identity provider.  Every provider
// response is classified into an error kind so callers can pick an HTTP
// status and decide whether the credential fallback may run: only
// operational failures (timeout, connection, provider 5xx) are transient;
// a semantic rejection such as a wrong password never is.
package suap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Kind classifies a provider failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindServer
	KindTimeout
	KindConnection
	KindUnauthorized // token invalid or expired on the user-info call
)

// Error is a classified provider failure with a human-readable detail that
// is safe to surface to API clients.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string { return e.Detail }
func (e *Error) Unwrap() error { return e.cause }

// IsTransient reports whether err represents an operational failure of the
// provider rather than a rejection of the supplied credentials.  The
// credential backup fallback may only run when this is true.
func IsTransient(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Kind {
	case KindTimeout, KindConnection, KindServer:
		return true
	}
	return false
}

// KindOf extracts the kind from err, or KindGeneric when err is not a
// provider error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindGeneric
}

// TokenPair is the provider's token response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserInfo is the subset of the provider's profile payload the system uses.
type UserInfo struct {
	ID          uint64 `json:"id"`
	NomeUsual   string `json:"nome_usual"`
	TipoVinculo string `json:"tipo_vinculo"`
	PhotoLarge  string `json:"url_foto_150x200"`
	PhotoSmall  string `json:"url_foto_75x100"`
}

// Client calls the SUAP HTTP API with a bounded timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a provider client.  A zero timeout defaults to 5s, the
// bound the rest of the system assumes for cross-service calls.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Login exchanges username/password for a provider token pair.
func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/token/pair", bytes.NewReader(body))
	if err != nil {
		return TokenPair{}, &Error{Kind: KindGeneric, Detail: "invalid provider request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenPair{}, transportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var pair TokenPair
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			return TokenPair{}, &Error{Kind: KindGeneric, Detail: "malformed provider response", cause: err}
		}
		return pair, nil
	case resp.StatusCode == http.StatusBadRequest:
		return TokenPair{}, &Error{Kind: KindGeneric, Detail: "provider rejected the request payload"}
	case resp.StatusCode == http.StatusUnauthorized:
		return TokenPair{}, &Error{Kind: KindInvalidCredentials, Detail: "invalid username or password"}
	case resp.StatusCode == http.StatusForbidden:
		return TokenPair{}, &Error{Kind: KindForbidden, Detail: "access to the identity provider denied"}
	case resp.StatusCode == http.StatusNotFound:
		return TokenPair{}, &Error{Kind: KindNotFound, Detail: "identity provider endpoint not found"}
	case resp.StatusCode >= 500:
		return TokenPair{}, &Error{Kind: KindServer, Detail: "identity provider internal error"}
	default:
		return TokenPair{}, &Error{Kind: KindGeneric, Detail: fmt.Sprintf("unexpected provider status %d", resp.StatusCode)}
	}
}

// GetUserInfo fetches the authenticated user's profile using the access
// token returned by Login.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/minhas-informacoes/meus-dados/", nil)
	if err != nil {
		return UserInfo{}, &Error{Kind: KindGeneric, Detail: "invalid provider request", cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return UserInfo{}, transportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var info UserInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return UserInfo{}, &Error{Kind: KindGeneric, Detail: "malformed provider response", cause: err}
		}
		return info, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return UserInfo{}, &Error{Kind: KindUnauthorized, Detail: "provider token invalid or expired"}
	case resp.StatusCode == http.StatusForbidden:
		return UserInfo{}, &Error{Kind: KindForbidden, Detail: "access to the user profile denied"}
	case resp.StatusCode == http.StatusNotFound:
		return UserInfo{}, &Error{Kind: KindNotFound, Detail: "user profile endpoint not found"}
	case resp.StatusCode >= 500:
		return UserInfo{}, &Error{Kind: KindServer, Detail: "identity provider internal error"}
	default:
		return UserInfo{}, &Error{Kind: KindGeneric, Detail: fmt.Sprintf("unexpected provider status %d", resp.StatusCode)}
	}
}

// transportError classifies a failed round trip into timeout vs connection.
func transportError(err error) *Error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Detail: "identity provider timed out", cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: "identity provider timed out", cause: err}
	}
	return &Error{Kind: KindConnection, Detail: "could not reach the identity provider", cause: err}
}

// HTTPStatus maps a provider error kind to the status the auth endpoints
// return for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindServer:
		return http.StatusBadGateway
	case KindTimeout, KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusServiceUnavailable
	}
}
