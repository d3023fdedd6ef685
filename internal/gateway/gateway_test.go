package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/feedr/feedr/internal/clientconfig"
	"github.com/feedr/feedr/internal/events"
	"github.com/feedr/feedr/internal/models"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	mu    sync.Mutex
	creds *clientconfig.AuthCredentials
}

func (m *memStore) Load() (*clientconfig.AuthCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *memStore) Save(c *clientconfig.AuthCredentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = c
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

func writeErrorEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func TestLoginSavesTokenAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req credentialsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "pat@example.com" {
			t.Errorf("email: got %q", req.Email)
		}
		json.NewEncoder(w).Encode(sessionResponse{
			Token:    "tok_1",
			Identity: models.Identity{ID: "u_1", Email: req.Email},
		})
	}))
	defer srv.Close()

	store := &memStore{}
	c := New(srv.URL, store)

	var seen []AuthEvent
	unsub := c.OnAuthChange(func(ev AuthEvent, id *models.Identity) {
		seen = append(seen, ev)
		if ev == AuthSignedIn && (id == nil || id.ID != "u_1") {
			t.Errorf("SIGNED_IN identity: got %+v", id)
		}
	})
	defer unsub()

	id, err := c.Login(context.Background(), "pat@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.ID != "u_1" {
		t.Fatalf("identity: got %+v", id)
	}
	if c.Token() != "tok_1" {
		t.Fatalf("token: got %q, want tok_1", c.Token())
	}
	if store.creds == nil || store.creds.Token != "tok_1" {
		t.Fatalf("persisted creds: got %+v", store.creds)
	}
	if len(seen) != 1 || seen[0] != AuthSignedIn {
		t.Fatalf("auth events: got %v, want [SIGNED_IN]", seen)
	}
}

func TestLoginRejectedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorEnvelope(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	_, err := c.Login(context.Background(), "pat@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized in chain, got %v", err)
	}
	if c.Token() != "" {
		t.Fatal("token should not be set after rejected login")
	}
}

func TestSessionAbsent(t *testing.T) {
	c := New("http://unreachable.invalid", &memStore{})

	var notified []AuthEvent
	c.OnAuthChange(func(ev AuthEvent, id *models.Identity) {
		notified = append(notified, ev)
		if id != nil {
			t.Errorf("expected nil identity, got %+v", id)
		}
	})

	id, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if id != nil {
		t.Fatalf("identity: got %+v, want nil", id)
	}
	if len(notified) != 1 || notified[0] != AuthInitialSession {
		t.Fatalf("auth events: got %v, want [INITIAL_SESSION]", notified)
	}
}

func TestSessionRejectedTokenClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorEnvelope(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
	}))
	defer srv.Close()

	store := &memStore{creds: &clientconfig.AuthCredentials{Token: "tok_stale"}}
	c := New(srv.URL, store)

	id, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if id != nil {
		t.Fatalf("identity: got %+v, want nil", id)
	}
	if store.creds != nil {
		t.Fatal("stale creds should have been cleared")
	}
	if c.Token() != "" {
		t.Fatal("stale token should have been dropped")
	}
}

func TestOnAuthChangeUnsubscribe(t *testing.T) {
	c := New("http://unreachable.invalid", &memStore{})

	count := 0
	unsub := c.OnAuthChange(func(AuthEvent, *models.Identity) { count++ })

	c.notifyAuthChange(AuthSignedIn, nil)
	unsub()
	unsub() // second call is a no-op
	c.notifyAuthChange(AuthSignedOut, nil)

	if count != 1 {
		t.Fatalf("observer calls: got %d, want 1", count)
	}
}

func TestRecentFeedsQueryAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pet_id"); got != "pet_1" {
			t.Errorf("pet_id: got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit: got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok_1" {
			t.Errorf("authorization: got %q", got)
		}
		json.NewEncoder(w).Encode([]models.Feed{
			{ID: "f_2", OwnerID: "u_1", PetID: "pet_1", Timestamp: now, Status: models.FeedPending, AmountG: 10},
			{ID: "f_1", OwnerID: "u_1", PetID: "pet_1", Timestamp: now.Add(-time.Hour), Status: models.FeedCompleted, AmountG: 20},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.setToken("tok_1")

	feeds, err := c.RecentFeeds(context.Background(), "pet_1", 10)
	if err != nil {
		t.Fatalf("recent feeds: %v", err)
	}
	if len(feeds) != 2 || feeds[0].ID != "f_2" {
		t.Fatalf("feeds: got %+v", feeds)
	}
}

func TestRecentFeedsInvalidRecordIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Feed{
			{ID: "f_1", OwnerID: "u_1", PetID: "pet_1", Status: "weird", AmountG: 10},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	_, err := c.RecentFeeds(context.Background(), "pet_1", 10)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
}

func TestFeedsSinceQuery(t *testing.T) {
	since := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pet_id"); got != "pet_1" {
			t.Errorf("pet_id: got %q", got)
		}
		if got := r.URL.Query().Get("since"); got != since.Format(time.RFC3339) {
			t.Errorf("since: got %q, want %q", got, since.Format(time.RFC3339))
		}
		if got := r.URL.Query().Get("limit"); got != "" {
			t.Errorf("limit: got %q, want unset", got)
		}
		json.NewEncoder(w).Encode([]models.Feed{
			{ID: "f_1", OwnerID: "u_1", PetID: "pet_1", Timestamp: since.Add(time.Hour), Status: models.FeedCompleted, AmountG: 40},
			{ID: "f_2", OwnerID: "u_1", PetID: "pet_1", Timestamp: since.Add(2 * time.Hour), Status: models.FeedPending, AmountG: 25},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.setToken("tok_1")

	feeds, err := c.FeedsSince(context.Background(), "pet_1", since)
	if err != nil {
		t.Fatalf("feeds since: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("feeds: got %d, want 2", len(feeds))
	}
}

func TestInsertFeedRejectsNonPositiveAmount(t *testing.T) {
	c := New("http://unreachable.invalid", &memStore{})
	_, err := c.InsertFeed(context.Background(), "pet_1", 0)
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("expected MutationError, got %T: %v", err, err)
	}
}

func TestSubscribeFeedsDeliveryAndUnsubscribe(t *testing.T) {
	feed := models.Feed{
		ID: "f_9", OwnerID: "u_1", PetID: "pet_1",
		Timestamp: time.Now().UTC(), Status: models.FeedPending, AmountG: 15,
	}
	payload, _ := json.Marshal(feed)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("collection"); got != "feeds" {
			t.Errorf("collection: got %q", got)
		}
		if got := r.URL.Query().Get("action"); got != "insert" {
			t.Errorf("action: got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// One matching event, one for another pet, one keepalive comment.
		ev := events.ChangeEvent{
			Collection: events.CollectionFeeds, Action: events.ActionInsert,
			OwnerID: "u_1", PetID: "pet_1", Payload: payload, EmittedAt: time.Now(),
		}
		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "data: %s\n\n", data)

		other := ev
		other.PetID = "pet_2"
		otherData, _ := json.Marshal(other)
		fmt.Fprintf(w, "data: %s\n\n", otherData)

		fmt.Fprint(w, ": keepalive\n\n")
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.setToken("tok_1")

	got := make(chan models.Feed, 4)
	sub, err := c.SubscribeFeeds(context.Background(), "u_1", "pet_1", func(f models.Feed) {
		got <- f
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case f := <-got:
		if f.ID != "f_9" {
			t.Fatalf("delivered feed: got %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	select {
	case f := <-got:
		t.Fatalf("unexpected event after unsubscribe: %+v", f)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeFeedsOutlivesCallerContext(t *testing.T) {
	feed := models.Feed{
		ID: "f_3", OwnerID: "u_1", PetID: "pet_1",
		Timestamp: time.Now().UTC(), Status: models.FeedPending, AmountG: 30,
	}
	payload, _ := json.Marshal(feed)

	emit := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		flusher.Flush()

		<-emit
		ev := events.ChangeEvent{
			Collection: events.CollectionFeeds, Action: events.ActionInsert,
			OwnerID: "u_1", PetID: "pet_1", Payload: payload, EmittedAt: time.Now(),
		}
		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.setToken("tok_1")

	got := make(chan models.Feed, 1)

	// Open the stream under a short-lived request context that is canceled
	// as soon as the call returns, the way a UI command with a deferred
	// cancel does.
	sub, err := func() (*Subscription, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.SubscribeFeeds(ctx, "u_1", "pet_1", func(f models.Feed) { got <- f })
	}()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	// The opening context is dead by now; the stream must still deliver.
	close(emit)

	select {
	case f := <-got:
		if f.ID != "f_3" {
			t.Fatalf("delivered feed: got %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered after the opening context was canceled")
	}
}

func TestSubscribeRejectsDeadContext(t *testing.T) {
	c := New("http://unreachable.invalid", &memStore{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.SubscribeFeeds(ctx, "u_1", "pet_1", func(models.Feed) {}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
