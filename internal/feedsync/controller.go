// Package feedsync keeps a per-screen view of recent feedings synchronized
// with the backend: a polling refetch for the full picture plus a realtime
// subscription scoped to the selected pet for incremental updates.
package feedsync

import (
	"context"
	"sync"

	"github.com/feedr/feedr/internal/models"
)

// DefaultCap is the bounded length of the recent-feed view.
const DefaultCap = 10

// State is the controller's synchronization phase.
type State string

const (
	// Unselected: no pet selected, no subscription open.
	Unselected State = "unselected"
	// Loading: selection set, refetch in flight.
	Loading State = "loading"
	// Synced: view populated, subscription live.
	Synced State = "synced"
)

// Handle is an open subscription that must be released exactly once.
type Handle interface {
	Unsubscribe()
}

// Source is the record/subscription surface the controller depends on.
// SubscribeFeeds uses ctx only while opening the stream; once returned, the
// Handle owns the subscription's lifetime.
type Source interface {
	RecentFeeds(ctx context.Context, petID string, limit int) ([]models.Feed, error)
	SubscribeFeeds(ctx context.Context, ownerID, petID string, fn func(models.Feed)) (Handle, error)
}

// Controller maintains the bounded newest-first feed list for the currently
// selected pet. All mutations funnel through two paths: Refetch replaces the
// list wholesale, and the subscription callback prepends single records.
// When a refetch and a change event race, the later completion wins; there
// is no generation token.
type Controller struct {
	src      Source
	ownerID  string
	cap      int
	onUpdate func()

	mu       sync.Mutex
	state    State
	selected *models.Pet
	feeds    []models.Feed
	sub      Handle
}

// NewController creates a controller for one screen. onUpdate is invoked
// after every state mutation so the view can re-render; it may be nil.
func NewController(src Source, ownerID string, capacity int, onUpdate func()) *Controller {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Controller{
		src:      src,
		ownerID:  ownerID,
		cap:      capacity,
		onUpdate: onUpdate,
		state:    Unselected,
	}
}

// SetOwner rebinds the controller to a new identity. Any live subscription
// is torn down because it was scoped to the previous owner.
func (c *Controller) SetOwner(ownerID string) {
	c.mu.Lock()
	if c.ownerID == ownerID {
		c.mu.Unlock()
		return
	}
	c.ownerID = ownerID
	c.mu.Unlock()
	c.ClearSelection()
}

// State returns the current synchronization phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the currently selected pet, or nil.
func (c *Controller) Selected() *models.Pet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Feeds returns a copy of the current view, newest first.
func (c *Controller) Feeds() []models.Feed {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Feed, len(c.feeds))
	copy(out, c.feeds)
	return out
}

func (c *Controller) emit() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

// SetPets re-resolves the selection against a freshly fetched pet list.
// Selection is held by id, so a deleted pet clears it: if the selected id
// is gone the first pet becomes selected, and an empty list drops the
// controller back to Unselected.
func (c *Controller) SetPets(ctx context.Context, pets []models.Pet) error {
	c.mu.Lock()
	var current *models.Pet
	if c.selected != nil {
		for i := range pets {
			if pets[i].ID == c.selected.ID {
				current = &pets[i]
				break
			}
		}
	}
	c.mu.Unlock()

	if current != nil {
		// Selection survives; keep list and subscription as they are.
		c.mu.Lock()
		c.selected = current
		c.mu.Unlock()
		c.emit()
		return nil
	}
	if len(pets) == 0 {
		c.ClearSelection()
		return nil
	}
	return c.SelectPet(ctx, pets[0])
}

// SelectPet sets the selection, refetches the view, and replaces the
// subscription. A failed refetch leaves the previous records visible and is
// returned to the caller, but never prevents the subscription swap.
func (c *Controller) SelectPet(ctx context.Context, pet models.Pet) error {
	c.mu.Lock()
	p := pet
	c.selected = &p
	c.state = Loading
	c.mu.Unlock()
	c.emit()

	fetchErr := c.Refetch(ctx)
	if err := c.replaceSubscription(ctx, pet.ID); err != nil {
		return err
	}
	return fetchErr
}

// Refetch replaces the entire view with the most recent records for the
// current selection, newest first, capped. The swap is atomic from the
// caller's perspective: readers see either the old list or the new one.
func (c *Controller) Refetch(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return nil
	}
	petID := c.selected.ID
	c.mu.Unlock()

	feeds, err := c.src.RecentFeeds(ctx, petID, c.cap)
	if err != nil {
		// Previous list stays intact; the caller decides whether to
		// surface or retry.
		return err
	}
	if len(feeds) > c.cap {
		feeds = feeds[:c.cap]
	}

	c.mu.Lock()
	c.feeds = feeds
	c.state = Synced
	c.mu.Unlock()
	c.emit()
	return nil
}

// replaceSubscription tears down the previous handle before opening the new
// one, then swaps. Strict teardown-before-create-before-swap keeps exactly
// one handle live across rapid selection changes.
func (c *Controller) replaceSubscription(ctx context.Context, petID string) error {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	ownerID := c.ownerID
	c.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}

	sub, err := c.src.SubscribeFeeds(ctx, ownerID, petID, func(feed models.Feed) {
		c.applyFeed(feed)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	return nil
}

// applyFeed is the sole mutation path for realtime-sourced records: prepend
// and truncate to the cap. No re-sort; insert order already matches
// timestamp-descending for monotonically increasing server timestamps.
func (c *Controller) applyFeed(feed models.Feed) {
	c.mu.Lock()
	if c.selected == nil || c.selected.ID != feed.PetID || feed.OwnerID != c.ownerID {
		c.mu.Unlock()
		return
	}
	feeds := make([]models.Feed, 0, min(len(c.feeds)+1, c.cap))
	feeds = append(feeds, feed)
	for _, f := range c.feeds {
		if len(feeds) >= c.cap {
			break
		}
		feeds = append(feeds, f)
	}
	c.feeds = feeds
	c.mu.Unlock()
	c.emit()
}

// ClearSelection drops to Unselected: the subscription is released and the
// view emptied. Used when the pet list empties or the identity clears.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.selected = nil
	c.feeds = nil
	c.state = Unselected
	c.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	c.emit()
}

// Close releases the current subscription. The handle must not be left to
// garbage collection.
func (c *Controller) Close() {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
}
