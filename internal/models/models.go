package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PetType represents the kind of animal a feeder serves
type PetType string

const (
	PetDog   PetType = "dog"
	PetCat   PetType = "cat"
	PetBird  PetType = "bird"
	PetOther PetType = "other"
)

// FeedStatus represents the lifecycle of a feed request. Clients only ever
// create pending feeds; the feeder actuator owns the terminal states.
type FeedStatus string

const (
	FeedPending   FeedStatus = "pending"
	FeedCompleted FeedStatus = "completed"
	FeedFailed    FeedStatus = "failed"
)

// Identity is an authenticated user account.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Pet is a user-owned feeding target.
type Pet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Type      PetType   `json:"type"`
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed is one feeding event or request. Append-only from the client's
// perspective: the client inserts pending feeds and never updates them.
type Feed struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	PetID     string     `json:"pet_id"`
	Timestamp time.Time  `json:"timestamp"`
	Status    FeedStatus `json:"status"`
	AmountG   int        `json:"amount_g"`
}

// Schedule is a recurring feeding-time rule for a pet.
type Schedule struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	PetID     string    `json:"pet_id"`
	TimeOfDay string    `json:"time_of_day"` // "HH:MM", 24-hour
	AmountG   int       `json:"amount_g"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// AllPetTypes returns the valid pet types.
func AllPetTypes() []PetType {
	return []PetType{PetDog, PetCat, PetBird, PetOther}
}

// IsValidPetType checks if the given pet type string is valid.
func IsValidPetType(t string) bool {
	switch PetType(t) {
	case PetDog, PetCat, PetBird, PetOther:
		return true
	}
	return false
}

// IsValidFeedStatus checks if the given feed status string is valid.
func IsValidFeedStatus(s string) bool {
	switch FeedStatus(s) {
	case FeedPending, FeedCompleted, FeedFailed:
		return true
	}
	return false
}

// ValidateTimeOfDay checks an "HH:MM" 24-hour time string.
func ValidateTimeOfDay(s string) error {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return fmt.Errorf("time of day must be HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return fmt.Errorf("invalid minute in %q", s)
	}
	return nil
}

// Validate checks a pet record received from the gateway boundary.
func (p *Pet) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pet missing id")
	}
	if p.OwnerID == "" {
		return fmt.Errorf("pet %s missing owner", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pet %s missing name", p.ID)
	}
	if !IsValidPetType(string(p.Type)) {
		return fmt.Errorf("pet %s has invalid type %q", p.ID, p.Type)
	}
	if p.WeightKg < 0 {
		return fmt.Errorf("pet %s has negative weight", p.ID)
	}
	return nil
}

// Validate checks a feed record received from the gateway boundary.
func (f *Feed) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("feed missing id")
	}
	if f.OwnerID == "" || f.PetID == "" {
		return fmt.Errorf("feed %s missing owner or pet", f.ID)
	}
	if !IsValidFeedStatus(string(f.Status)) {
		return fmt.Errorf("feed %s has invalid status %q", f.ID, f.Status)
	}
	if f.AmountG <= 0 {
		return fmt.Errorf("feed %s has non-positive amount", f.ID)
	}
	return nil
}

// Validate checks a schedule record received from the gateway boundary.
func (s *Schedule) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("schedule missing id")
	}
	if s.OwnerID == "" || s.PetID == "" {
		return fmt.Errorf("schedule %s missing owner or pet", s.ID)
	}
	if err := ValidateTimeOfDay(s.TimeOfDay); err != nil {
		return fmt.Errorf("schedule %s: %w", s.ID, err)
	}
	if s.AmountG <= 0 {
		return fmt.Errorf("schedule %s has non-positive amount", s.ID)
	}
	return nil
}
