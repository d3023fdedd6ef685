package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/feedr/feedr/internal/models"
)

// ListPets returns the authenticated user's pets, oldest first. Every record
// is validated at the boundary before it reaches view state.
func (c *Client) ListPets(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := c.do(ctx, "GET", "/v1/pets", nil, &pets); err != nil {
		return nil, &FetchError{Collection: "pets", Err: err}
	}
	for i := range pets {
		if err := pets[i].Validate(); err != nil {
			return nil, &FetchError{Collection: "pets", Err: err}
		}
	}
	return pets, nil
}

// CreatePet creates a pet owned by the authenticated user.
func (c *Client) CreatePet(ctx context.Context, name string, petType models.PetType, weightKg float64) (*models.Pet, error) {
	body := map[string]any{"name": name, "type": petType, "weight_kg": weightKg}
	var pet models.Pet
	if err := c.do(ctx, "POST", "/v1/pets", body, &pet); err != nil {
		return nil, &MutationError{Collection: "pets", Op: "insert", Err: err}
	}
	if err := pet.Validate(); err != nil {
		return nil, &MutationError{Collection: "pets", Op: "insert", Err: err}
	}
	return &pet, nil
}

// DeletePet removes a pet and its dependent records.
func (c *Client) DeletePet(ctx context.Context, petID string) error {
	if err := c.do(ctx, "DELETE", "/v1/pets/"+url.PathEscape(petID), nil, nil); err != nil {
		return &MutationError{Collection: "pets", Op: "delete", Err: err}
	}
	return nil
}

// RecentFeeds returns the most recent feeds for a pet, newest first,
// limited to limit records.
func (c *Client) RecentFeeds(ctx context.Context, petID string, limit int) ([]models.Feed, error) {
	params := url.Values{}
	params.Set("pet_id", petID)
	params.Set("limit", strconv.Itoa(limit))

	var feeds []models.Feed
	if err := c.do(ctx, "GET", "/v1/feeds?"+params.Encode(), nil, &feeds); err != nil {
		return nil, &FetchError{Collection: "feeds", Err: err}
	}
	for i := range feeds {
		if err := feeds[i].Validate(); err != nil {
			return nil, &FetchError{Collection: "feeds", Err: err}
		}
	}
	return feeds, nil
}

// FeedsSince returns feeds for a pet since the given time, newest first.
// The dashboard uses it for the today view.
func (c *Client) FeedsSince(ctx context.Context, petID string, since time.Time) ([]models.Feed, error) {
	params := url.Values{}
	params.Set("pet_id", petID)
	params.Set("since", since.UTC().Format(time.RFC3339))

	var feeds []models.Feed
	if err := c.do(ctx, "GET", "/v1/feeds?"+params.Encode(), nil, &feeds); err != nil {
		return nil, &FetchError{Collection: "feeds", Err: err}
	}
	for i := range feeds {
		if err := feeds[i].Validate(); err != nil {
			return nil, &FetchError{Collection: "feeds", Err: err}
		}
	}
	return feeds, nil
}

// InsertFeed triggers a feeding. The status is always pending; the actuator
// owns every later transition.
func (c *Client) InsertFeed(ctx context.Context, petID string, amountG int) (*models.Feed, error) {
	if amountG <= 0 {
		return nil, &MutationError{Collection: "feeds", Op: "insert",
			Err: fmt.Errorf("amount must be positive, got %d", amountG)}
	}
	body := map[string]any{"pet_id": petID, "amount_g": amountG}
	var feed models.Feed
	if err := c.do(ctx, "POST", "/v1/feeds", body, &feed); err != nil {
		return nil, &MutationError{Collection: "feeds", Op: "insert", Err: err}
	}
	if err := feed.Validate(); err != nil {
		return nil, &MutationError{Collection: "feeds", Op: "insert", Err: err}
	}
	return &feed, nil
}

// ListSchedules returns schedules for a pet, earliest time-of-day first.
func (c *Client) ListSchedules(ctx context.Context, petID string) ([]models.Schedule, error) {
	params := url.Values{}
	params.Set("pet_id", petID)

	var schedules []models.Schedule
	if err := c.do(ctx, "GET", "/v1/schedules?"+params.Encode(), nil, &schedules); err != nil {
		return nil, &FetchError{Collection: "schedules", Err: err}
	}
	for i := range schedules {
		if err := schedules[i].Validate(); err != nil {
			return nil, &FetchError{Collection: "schedules", Err: err}
		}
	}
	return schedules, nil
}

// CreateSchedule adds a recurring feeding rule for a pet.
func (c *Client) CreateSchedule(ctx context.Context, petID, timeOfDay string, amountG int) (*models.Schedule, error) {
	if err := models.ValidateTimeOfDay(timeOfDay); err != nil {
		return nil, &MutationError{Collection: "schedules", Op: "insert", Err: err}
	}
	body := map[string]any{"pet_id": petID, "time_of_day": timeOfDay, "amount_g": amountG}
	var schedule models.Schedule
	if err := c.do(ctx, "POST", "/v1/schedules", body, &schedule); err != nil {
		return nil, &MutationError{Collection: "schedules", Op: "insert", Err: err}
	}
	if err := schedule.Validate(); err != nil {
		return nil, &MutationError{Collection: "schedules", Op: "insert", Err: err}
	}
	return &schedule, nil
}

// SetScheduleActive toggles a schedule's active flag.
func (c *Client) SetScheduleActive(ctx context.Context, scheduleID string, active bool) error {
	body := map[string]bool{"active": active}
	if err := c.do(ctx, "PATCH", "/v1/schedules/"+url.PathEscape(scheduleID), body, nil); err != nil {
		return &MutationError{Collection: "schedules", Op: "update", Err: err}
	}
	return nil
}

// DeleteSchedule removes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if err := c.do(ctx, "DELETE", "/v1/schedules/"+url.PathEscape(scheduleID), nil, nil); err != nil {
		return &MutationError{Collection: "schedules", Op: "delete", Err: err}
	}
	return nil
}
