package events

import (
	"encoding/json"
	"strings"
	"time"
)

// Collection represents the canonical record collections in the sync system.
type Collection string

// Action represents the canonical change actions for events.
type Action string

// Canonical collections
const (
	CollectionPets      Collection = "pets"
	CollectionFeeds     Collection = "feeds"
	CollectionSchedules Collection = "schedules"
	CollectionProfiles  Collection = "user_profiles"
)

// Canonical actions
const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is one change notification delivered over a subscription.
// Payload holds the full record for inserts and updates, and the record id
// only for deletes.
type ChangeEvent struct {
	Collection Collection      `json:"collection"`
	Action     Action          `json:"action"`
	OwnerID    string          `json:"owner_id"`
	PetID      string          `json:"pet_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	EmittedAt  time.Time       `json:"emitted_at"`
}

// AllCollections returns all valid collections.
func AllCollections() map[Collection]bool {
	return map[Collection]bool{
		CollectionPets:      true,
		CollectionFeeds:     true,
		CollectionSchedules: true,
		CollectionProfiles:  true,
	}
}

// AllActions returns all valid actions.
func AllActions() map[Action]bool {
	return map[Action]bool{
		ActionInsert: true,
		ActionUpdate: true,
		ActionDelete: true,
	}
}

// IsValidCollection checks if the given collection string is valid.
func IsValidCollection(c string) bool {
	return AllCollections()[Collection(c)]
}

// IsValidAction checks if the given action string is valid.
func IsValidAction(a string) bool {
	return AllActions()[Action(a)]
}

// NormalizeCollection normalizes a collection string to its canonical form.
// Returns the canonical collection and true if valid.
func NormalizeCollection(c string) (Collection, bool) {
	n := Collection(strings.ToLower(strings.TrimSpace(c)))
	if AllCollections()[n] {
		return n, true
	}
	return "", false
}
