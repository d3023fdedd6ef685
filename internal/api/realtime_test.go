package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/feedr/feedr/internal/events"
	"github.com/feedr/feedr/internal/models"
)

// openStream connects to /v1/changes and returns a channel of decoded events.
func openStream(t *testing.T, baseURL, token, query string) (<-chan events.ChangeEvent, func()) {
	t.Helper()

	req, err := http.NewRequest("GET", baseURL+"/v1/changes"+query, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("open stream: status %d", resp.StatusCode)
	}

	ch := make(chan events.ChangeEvent, 16)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev events.ChangeEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			ch <- ev
		}
	}()

	return ch, func() { resp.Body.Close() }
}

func waitEvent(t *testing.T, ch <-chan events.ChangeEvent) events.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("stream closed before event arrived")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return events.ChangeEvent{}
}

func TestChangeStreamDeliversFeedInserts(t *testing.T) {
	_, ts := newTestServer(t)
	token, userID := signupUser(t, ts.URL, "owner@example.com")
	pet := createPet(t, ts.URL, token, "Rex")

	ch, closeStream := openStream(t, ts.URL, token,
		"?collection=feeds&action=insert&pet_id="+pet.ID)
	defer closeStream()
	// Give the subscriber time to register before publishing.
	time.Sleep(100 * time.Millisecond)

	var feed models.Feed
	doJSON(t, "POST", ts.URL+"/v1/feeds", token,
		map[string]any{"pet_id": pet.ID, "amount_g": 50}, &feed)

	ev := waitEvent(t, ch)
	if ev.Collection != events.CollectionFeeds || ev.Action != events.ActionInsert {
		t.Errorf("event: got %s/%s", ev.Collection, ev.Action)
	}
	if ev.OwnerID != userID || ev.PetID != pet.ID {
		t.Errorf("event scope: owner %s pet %s", ev.OwnerID, ev.PetID)
	}
	var got models.Feed
	if err := json.Unmarshal(ev.Payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != feed.ID {
		t.Errorf("payload id: got %s, want %s", got.ID, feed.ID)
	}
}

func TestChangeStreamFiltersByPet(t *testing.T) {
	_, ts := newTestServer(t)
	token, _ := signupUser(t, ts.URL, "owner@example.com")
	petA := createPet(t, ts.URL, token, "Rex")
	petB := createPet(t, ts.URL, token, "Whiskers")

	ch, closeStream := openStream(t, ts.URL, token,
		"?collection=feeds&action=insert&pet_id="+petA.ID)
	defer closeStream()
	time.Sleep(100 * time.Millisecond)

	// Feed the other pet first, then the subscribed one. Only the second
	// event arrives.
	doJSON(t, "POST", ts.URL+"/v1/feeds", token,
		map[string]any{"pet_id": petB.ID, "amount_g": 30}, nil)
	doJSON(t, "POST", ts.URL+"/v1/feeds", token,
		map[string]any{"pet_id": petA.ID, "amount_g": 50}, nil)

	ev := waitEvent(t, ch)
	if ev.PetID != petA.ID {
		t.Errorf("event pet: got %s, want %s", ev.PetID, petA.ID)
	}
}

func TestChangeStreamIsOwnerScoped(t *testing.T) {
	_, ts := newTestServer(t)
	ownerToken, _ := signupUser(t, ts.URL, "owner@example.com")
	spyToken, _ := signupUser(t, ts.URL, "spy@example.com")
	pet := createPet(t, ts.URL, ownerToken, "Rex")

	spyCh, closeSpy := openStream(t, ts.URL, spyToken, "")
	defer closeSpy()
	ownerCh, closeOwner := openStream(t, ts.URL, ownerToken, "")
	defer closeOwner()
	time.Sleep(100 * time.Millisecond)

	doJSON(t, "POST", ts.URL+"/v1/feeds", ownerToken,
		map[string]any{"pet_id": pet.ID, "amount_g": 50}, nil)

	// The owner sees the event.
	waitEvent(t, ownerCh)

	// The spy never does.
	select {
	case ev := <-spyCh:
		t.Fatalf("spy received another owner's event: %s/%s", ev.Collection, ev.Action)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestChangeStreamRejectsUnknownFilters(t *testing.T) {
	_, ts := newTestServer(t)
	token, _ := signupUser(t, ts.URL, "owner@example.com")

	req, _ := http.NewRequest("GET", ts.URL+"/v1/changes?collection=nonsense", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown collection: status %d, want 400", resp.StatusCode)
	}
}
