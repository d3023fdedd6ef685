package session

import (
	"context"
	"errors"
	"testing"

	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/models"
)

// fakeGateway implements Gateway with scriptable results and records the
// observer so tests can push auth-change notifications.
type fakeGateway struct {
	sessionIdentity *models.Identity
	sessionErr      error
	loginErr        error
	signupIdentity  *models.Identity
	signupErr       error
	profileErr      error
	logoutErr       error

	observer     gateway.AuthChangeFunc
	unsubCalls   int
	profileCalls int
}

func (f *fakeGateway) Session(context.Context) (*models.Identity, error) {
	return f.sessionIdentity, f.sessionErr
}

func (f *fakeGateway) Login(context.Context, string, string) (*models.Identity, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.Identity{ID: "u_1"}, nil
}

func (f *fakeGateway) Signup(context.Context, string, string) (*models.Identity, error) {
	return f.signupIdentity, f.signupErr
}

func (f *fakeGateway) CreateProfile(_ context.Context, id models.Identity) error {
	f.profileCalls++
	if f.profileErr != nil {
		return &gateway.ProfileCreationError{UserID: id.ID, Err: f.profileErr}
	}
	return nil
}

func (f *fakeGateway) Logout(context.Context) error { return f.logoutErr }

func (f *fakeGateway) OnAuthChange(fn gateway.AuthChangeFunc) func() {
	f.observer = fn
	return func() { f.unsubCalls++ }
}

func TestInitializeResolvesLoading(t *testing.T) {
	gw := &fakeGateway{sessionIdentity: &models.Identity{ID: "u_1", Email: "pat@example.com"}}
	store := NewStore(gw)

	if st := store.State(); !st.Loading || st.Identity != nil {
		t.Fatalf("pre-init state: got %+v, want loading with no identity", st)
	}

	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	st := store.State()
	if st.Loading {
		t.Fatal("loading should clear after first resolution")
	}
	if st.Identity == nil || st.Identity.ID != "u_1" {
		t.Fatalf("identity: got %+v", st.Identity)
	}
	if !st.Authenticated() {
		t.Fatal("Authenticated() = false, want true")
	}
}

func TestInitializeAbsentSession(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)

	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	st := store.State()
	if st.Loading || st.Identity != nil {
		t.Fatalf("state: got %+v, want resolved unauthenticated", st)
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	gw := &fakeGateway{sessionIdentity: &models.Identity{ID: "u_1"}}
	store := NewStore(gw)

	store.Initialize(context.Background())
	gw.sessionIdentity = &models.Identity{ID: "u_2"}
	store.Initialize(context.Background())

	if st := store.State(); st.Identity.ID != "u_1" {
		t.Fatalf("second Initialize re-resolved the session: %+v", st.Identity)
	}
}

func TestAuthChangeOverwritesIdentityNotLoading(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	store.Initialize(context.Background())

	var states []State
	store.Subscribe(func(st State) { states = append(states, st) })

	gw.observer(gateway.AuthSignedIn, &models.Identity{ID: "u_9"})
	st := store.State()
	if st.Identity == nil || st.Identity.ID != "u_9" {
		t.Fatalf("identity after SIGNED_IN: got %+v", st.Identity)
	}
	if st.Loading {
		t.Fatal("auth change must not touch the loading flag")
	}

	gw.observer(gateway.AuthSignedOut, nil)
	if st := store.State(); st.Identity != nil {
		t.Fatalf("identity after SIGNED_OUT: got %+v, want nil", st.Identity)
	}

	if len(states) != 2 {
		t.Fatalf("observer notifications: got %d, want 2", len(states))
	}
}

func TestLoginErrorPropagates(t *testing.T) {
	wantErr := &gateway.AuthError{Op: "login", Err: errors.New("invalid credentials")}
	gw := &fakeGateway{loginErr: wantErr}
	store := NewStore(gw)
	store.Initialize(context.Background())

	err := store.Login(context.Background(), "pat@example.com", "wrong")
	var authErr *gateway.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestSignupProvisionsProfile(t *testing.T) {
	gw := &fakeGateway{signupIdentity: &models.Identity{ID: "u_new", Email: "new@example.com"}}
	store := NewStore(gw)
	store.Initialize(context.Background())

	if err := store.Signup(context.Background(), "new@example.com", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if gw.profileCalls != 1 {
		t.Fatalf("profile provisioning calls: got %d, want 1", gw.profileCalls)
	}
}

func TestSignupProfileFailure(t *testing.T) {
	gw := &fakeGateway{
		signupIdentity: &models.Identity{ID: "u_new"},
		profileErr:     errors.New("insert rejected"),
	}
	store := NewStore(gw)
	store.Initialize(context.Background())

	err := store.Signup(context.Background(), "new@example.com", "hunter22")
	var profErr *gateway.ProfileCreationError
	if !errors.As(err, &profErr) {
		t.Fatalf("expected ProfileCreationError, got %T: %v", err, err)
	}
}

func TestCloseUnsubscribesExactlyOnce(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	store.Initialize(context.Background())

	store.Close()
	store.Close()

	if gw.unsubCalls != 1 {
		t.Fatalf("unsubscribe calls: got %d, want 1", gw.unsubCalls)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	store.Initialize(context.Background())

	count := 0
	unsub := store.Subscribe(func(State) { count++ })
	gw.observer(gateway.AuthSignedIn, &models.Identity{ID: "u_1"})
	unsub()
	gw.observer(gateway.AuthSignedOut, nil)

	if count != 1 {
		t.Fatalf("notifications after unsubscribe: got %d, want 1", count)
	}
}
