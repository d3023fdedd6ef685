package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feedr/feedr/internal/events"
	"github.com/feedr/feedr/internal/models"
)

// publish marshals the record and fans the change out to open streams.
func (s *Server) publish(collection events.Collection, action events.Action, ownerID, petID string, record any) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	s.hub.Publish(events.ChangeEvent{
		Collection: collection,
		Action:     action,
		OwnerID:    ownerID,
		PetID:      petID,
		Payload:    payload,
		EmittedAt:  time.Now().UTC(),
	})
}

// --- Pets ---

func (s *Server) handleListPets(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	pets, err := s.store.ListPets(user.UserID)
	if err != nil {
		logFor(r.Context()).Error("list pets", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list pets")
		return
	}
	if pets == nil {
		pets = []models.Pet{}
	}
	writeJSON(w, http.StatusOK, pets)
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	var req struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		WeightKg float64 `json:"weight_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
		return
	}
	if !models.IsValidPetType(req.Type) {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid pet type")
		return
	}

	pet, err := s.store.CreatePet(user.UserID, strings.TrimSpace(req.Name), models.PetType(req.Type), req.WeightKg)
	if err != nil {
		logFor(r.Context()).Error("create pet", "err", err)
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	s.publish(events.CollectionPets, events.ActionInsert, user.UserID, pet.ID, pet)
	writeJSON(w, http.StatusCreated, pet)
}

func (s *Server) handleDeletePet(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	petID := r.PathValue("id")

	ok, err := s.store.DeletePet(user.UserID, petID)
	if err != nil {
		logFor(r.Context()).Error("delete pet", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to delete pet")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "pet not found")
		return
	}

	s.publish(events.CollectionPets, events.ActionDelete, user.UserID, petID, map[string]string{"id": petID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Feeds ---

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	petID := r.URL.Query().Get("pet_id")
	if petID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "pet_id is required")
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	feeds, err := s.store.ListFeeds(user.UserID, petID, since, limit)
	if err != nil {
		logFor(r.Context()).Error("list feeds", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list feeds")
		return
	}
	if feeds == nil {
		feeds = []models.Feed{}
	}
	writeJSON(w, http.StatusOK, feeds)
}

func (s *Server) handleInsertFeed(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	var req struct {
		PetID   string `json:"pet_id"`
		AmountG int    `json:"amount_g"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.AmountG <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "amount_g must be positive")
		return
	}

	pet, err := s.store.GetPet(user.UserID, req.PetID)
	if err != nil {
		logFor(r.Context()).Error("lookup pet", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to record feed")
		return
	}
	if pet == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "pet not found")
		return
	}

	feed, err := s.store.InsertFeed(user.UserID, req.PetID, req.AmountG)
	if err != nil {
		logFor(r.Context()).Error("insert feed", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to record feed")
		return
	}

	s.metrics.RecordFeedInserted()
	s.publish(events.CollectionFeeds, events.ActionInsert, user.UserID, feed.PetID, feed)
	writeJSON(w, http.StatusCreated, feed)
}

// handleSetFeedStatus moves a feed to a terminal status. This is the
// actuator callback path; clients only ever insert pending feeds.
func (s *Server) handleSetFeedStatus(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	feedID := r.PathValue("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.Status != string(models.FeedCompleted) && req.Status != string(models.FeedFailed) {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "status must be completed or failed")
		return
	}

	feed, err := s.store.SetFeedStatus(user.UserID, feedID, models.FeedStatus(req.Status))
	if err != nil {
		logFor(r.Context()).Error("set feed status", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to update feed")
		return
	}
	if feed == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "feed not found")
		return
	}

	s.publish(events.CollectionFeeds, events.ActionUpdate, user.UserID, feed.PetID, feed)
	writeJSON(w, http.StatusOK, feed)
}

// --- Schedules ---

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	schedules, err := s.store.ListSchedules(user.UserID, r.URL.Query().Get("pet_id"))
	if err != nil {
		logFor(r.Context()).Error("list schedules", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list schedules")
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	var req struct {
		PetID     string `json:"pet_id"`
		TimeOfDay string `json:"time_of_day"`
		AmountG   int    `json:"amount_g"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if err := models.ValidateTimeOfDay(req.TimeOfDay); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if req.AmountG <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "amount_g must be positive")
		return
	}

	pet, err := s.store.GetPet(user.UserID, req.PetID)
	if err != nil {
		logFor(r.Context()).Error("lookup pet", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create schedule")
		return
	}
	if pet == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "pet not found")
		return
	}

	schedule, err := s.store.CreateSchedule(user.UserID, req.PetID, req.TimeOfDay, req.AmountG)
	if err != nil {
		logFor(r.Context()).Error("create schedule", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create schedule")
		return
	}

	s.publish(events.CollectionSchedules, events.ActionInsert, user.UserID, schedule.PetID, schedule)
	writeJSON(w, http.StatusCreated, schedule)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	scheduleID := r.PathValue("id")

	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "active is required")
		return
	}

	schedule, err := s.store.SetScheduleActive(user.UserID, scheduleID, *req.Active)
	if err != nil {
		logFor(r.Context()).Error("update schedule", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to update schedule")
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "schedule not found")
		return
	}

	s.publish(events.CollectionSchedules, events.ActionUpdate, user.UserID, schedule.PetID, schedule)
	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	scheduleID := r.PathValue("id")

	ok, err := s.store.DeleteSchedule(user.UserID, scheduleID)
	if err != nil {
		logFor(r.Context()).Error("delete schedule", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to delete schedule")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "schedule not found")
		return
	}

	s.publish(events.CollectionSchedules, events.ActionDelete, user.UserID, "", map[string]string{"id": scheduleID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
