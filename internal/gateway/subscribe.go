package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/feedr/feedr/internal/events"
	"github.com/feedr/feedr/internal/models"
)

// Subscription is an open change-notification channel scoped to a collection
// and row predicate. It must be released with Unsubscribe; the stream is not
// tied to garbage collection.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe closes the subscription and waits for the delivery goroutine
// to stop, so no event callback runs after it returns. Safe to call more
// than once. Must not be called from inside the event callback.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Subscribe opens a server-sent-events stream of change notifications for
// one collection, filtered by action and (optionally) pet id. The server
// additionally scopes every stream to the authenticated owner. Events are
// delivered in server emit order, one goroutine per subscription.
//
// ctx covers only opening the stream. Once open, the subscription outlives
// any deadline or cancelation on ctx; callers typically open it under a
// short per-request timeout while the stream itself stays up until
// Unsubscribe.
func (c *Client) Subscribe(ctx context.Context, collection events.Collection, action events.Action, petID string, fn func(events.ChangeEvent)) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("collection", string(collection))
	params.Set("action", string(action))
	if petID != "" {
		params.Set("pet_id", petID)
	}

	// Detached from ctx: the stream's lifetime is owned by Unsubscribe,
	// not by the caller's deadline.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	req, err := http.NewRequestWithContext(streamCtx, "GET", c.BaseURL+"/v1/changes?"+params.Encode(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// The stream outlives the client's default request timeout, so it uses
	// the transport directly.
	transport := c.HTTP.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		cancel()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open stream: HTTP %d", resp.StatusCode)
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				// blank separators and ": keepalive" comments
				continue
			}
			var ev events.ChangeEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				slog.Debug("drop undecodable change event", "err", err)
				continue
			}
			fn(ev)
		}
	}()

	return sub, nil
}

// SubscribeFeeds opens a subscription for feed inserts scoped to one owner
// and pet. Events whose payload fails validation or whose predicate does not
// match are dropped.
func (c *Client) SubscribeFeeds(ctx context.Context, ownerID, petID string, fn func(models.Feed)) (*Subscription, error) {
	return c.Subscribe(ctx, events.CollectionFeeds, events.ActionInsert, petID, func(ev events.ChangeEvent) {
		if ev.Collection != events.CollectionFeeds || ev.Action != events.ActionInsert {
			return
		}
		if ev.OwnerID != ownerID || (ev.PetID != "" && ev.PetID != petID) {
			return
		}
		var feed models.Feed
		if err := json.Unmarshal(ev.Payload, &feed); err != nil {
			slog.Debug("drop undecodable feed event", "err", err)
			return
		}
		if err := feed.Validate(); err != nil {
			slog.Debug("drop invalid feed event", "err", err)
			return
		}
		if feed.OwnerID != ownerID || feed.PetID != petID {
			return
		}
		fn(feed)
	})
}
