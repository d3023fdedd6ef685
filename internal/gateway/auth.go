package gateway

import (
	"context"
	"fmt"

	"github.com/feedr/feedr/internal/clientconfig"
	"github.com/feedr/feedr/internal/models"
)

// AuthEvent is the kind of auth-state change delivered to observers.
type AuthEvent string

const (
	AuthInitialSession AuthEvent = "INITIAL_SESSION"
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthChangeFunc receives auth-state change notifications. identity is nil
// when the session ended or none exists.
type AuthChangeFunc func(event AuthEvent, identity *models.Identity)

// OnAuthChange registers an observer for auth-state changes and returns a
// function that unregisters it. Unregistering more than once is a no-op.
func (c *Client) OnAuthChange(fn AuthChangeFunc) (unsubscribe func()) {
	c.mu.Lock()
	if c.observers == nil {
		c.observers = make(map[int]AuthChangeFunc)
	}
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// notifyAuthChange invokes every registered observer with the change.
func (c *Client) notifyAuthChange(event AuthEvent, identity *models.Identity) {
	c.mu.Lock()
	fns := make([]AuthChangeFunc, 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, identity)
	}
}

// --- Wire types ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string          `json:"token,omitempty"`
	Identity models.Identity `json:"identity"`
}

// Session resolves the persisted session, if any. It is called once at
// startup. A missing or rejected token resolves to (nil, nil): absence of an
// identity, not an error. Observers are notified with INITIAL_SESSION either
// way.
func (c *Client) Session(ctx context.Context) (*models.Identity, error) {
	creds, err := c.tokens.Load()
	if err != nil {
		return nil, &AuthError{Op: "session", Err: err}
	}
	if creds == nil || creds.Token == "" {
		c.notifyAuthChange(AuthInitialSession, nil)
		return nil, nil
	}

	c.setToken(creds.Token)

	var resp sessionResponse
	if err := c.do(ctx, "GET", "/v1/auth/session", nil, &resp); err != nil {
		// An invalid or expired token is an absent session, not a failure.
		c.setToken("")
		if clearErr := c.tokens.Clear(); clearErr != nil {
			return nil, &AuthError{Op: "session", Err: clearErr}
		}
		c.notifyAuthChange(AuthInitialSession, nil)
		return nil, nil
	}

	id := resp.Identity
	c.notifyAuthChange(AuthInitialSession, &id)
	return &id, nil
}

// Login authenticates with email and password. On success the persisted
// token is replaced and observers receive SIGNED_IN; the notification, not
// the return value, is the authoritative identity update.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	var resp sessionResponse
	err := c.doNoAuth(ctx, "POST", "/v1/auth/login", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, &AuthError{Op: "login", Err: err}
	}
	if resp.Token == "" {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("server returned no token")}
	}

	c.setToken(resp.Token)
	if err := c.tokens.Save(&clientconfig.AuthCredentials{
		Token:     resp.Token,
		UserID:    resp.Identity.ID,
		Email:     resp.Identity.Email,
		ServerURL: c.BaseURL,
	}); err != nil {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("persist session: %w", err)}
	}

	id := resp.Identity
	c.notifyAuthChange(AuthSignedIn, &id)
	return &id, nil
}

// Signup creates an account and signs it in. The caller is responsible for
// provisioning the profile record afterwards (see CreateProfile).
func (c *Client) Signup(ctx context.Context, email, password string) (*models.Identity, error) {
	var resp sessionResponse
	err := c.doNoAuth(ctx, "POST", "/v1/auth/signup", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, &AuthError{Op: "signup", Err: err}
	}
	if resp.Token == "" {
		return nil, &AuthError{Op: "signup", Err: fmt.Errorf("server returned no token")}
	}

	c.setToken(resp.Token)
	if err := c.tokens.Save(&clientconfig.AuthCredentials{
		Token:     resp.Token,
		UserID:    resp.Identity.ID,
		Email:     resp.Identity.Email,
		ServerURL: c.BaseURL,
	}); err != nil {
		return nil, &AuthError{Op: "signup", Err: fmt.Errorf("persist session: %w", err)}
	}

	id := resp.Identity
	c.notifyAuthChange(AuthSignedIn, &id)
	return &id, nil
}

// CreateProfile provisions the profile record keyed by a new identity id.
func (c *Client) CreateProfile(ctx context.Context, identity models.Identity) error {
	body := map[string]string{"id": identity.ID, "email": identity.Email}
	if err := c.do(ctx, "POST", "/v1/profiles", body, nil); err != nil {
		return &ProfileCreationError{UserID: identity.ID, Err: err}
	}
	return nil
}

// Logout revokes the session. On failure the session is left intact and an
// AuthError is returned; on success observers receive SIGNED_OUT.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, "POST", "/v1/auth/logout", nil, nil); err != nil {
		return &AuthError{Op: "logout", Err: err}
	}
	c.setToken("")
	if err := c.tokens.Clear(); err != nil {
		return &AuthError{Op: "logout", Err: err}
	}
	c.notifyAuthChange(AuthSignedOut, nil)
	return nil
}
