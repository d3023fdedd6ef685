package serverdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feedr/feedr/internal/models"
)

// CreatePet inserts a pet owned by ownerID.
func (db *ServerDB) CreatePet(ownerID, name string, petType models.PetType, weightKg float64) (*models.Pet, error) {
	p := &models.Pet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Type:      petType,
		WeightKg:  weightKg,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	_, err := db.conn.Exec(
		`INSERT INTO pets (id, owner_id, name, type, weight_kg, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, string(p.Type), p.WeightKg, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}
	return p, nil
}

// ListPets returns the owner's pets ordered by creation time.
func (db *ServerDB) ListPets(ownerID string) ([]models.Pet, error) {
	rows, err := db.conn.Query(
		`SELECT id, owner_id, name, type, weight_kg, created_at FROM pets WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	var pets []models.Pet
	for rows.Next() {
		var p models.Pet
		var petType, createdAt string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &petType, &p.WeightKg, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		p.Type = models.PetType(petType)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// GetPet fetches one pet scoped to its owner. Returns (nil, nil) when absent.
func (db *ServerDB) GetPet(ownerID, petID string) (*models.Pet, error) {
	var p models.Pet
	var petType, createdAt string
	err := db.conn.QueryRow(
		`SELECT id, owner_id, name, type, weight_kg, created_at FROM pets WHERE id = ? AND owner_id = ?`,
		petID, ownerID).Scan(&p.ID, &p.OwnerID, &p.Name, &petType, &p.WeightKg, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan pet: %w", err)
	}
	p.Type = models.PetType(petType)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// DeletePet removes a pet and, via foreign keys, its feeds and schedules.
// Returns false when the pet does not exist for this owner.
func (db *ServerDB) DeletePet(ownerID, petID string) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM pets WHERE id = ? AND owner_id = ?`, petID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete pet: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// InsertFeed records a feed request for a pet. New feeds start pending; the
// actuator moves them to completed or failed.
func (db *ServerDB) InsertFeed(ownerID, petID string, amountG int) (*models.Feed, error) {
	f := &models.Feed{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		PetID:     petID,
		Timestamp: time.Now().UTC(),
		Status:    models.FeedPending,
		AmountG:   amountG,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	_, err := db.conn.Exec(
		`INSERT INTO feeds (id, owner_id, pet_id, timestamp, status, amount_g) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, f.PetID, f.Timestamp.Format(time.RFC3339Nano), string(f.Status), f.AmountG)
	if err != nil {
		return nil, fmt.Errorf("insert feed: %w", err)
	}
	return f, nil
}

// ListFeeds returns a pet's feeds newest first. A zero since means no lower
// bound; limit <= 0 means no cap.
func (db *ServerDB) ListFeeds(ownerID, petID string, since time.Time, limit int) ([]models.Feed, error) {
	query := `SELECT id, owner_id, pet_id, timestamp, status, amount_g FROM feeds WHERE owner_id = ? AND pet_id = ?`
	args := []interface{}{ownerID, petID}
	if !since.IsZero() {
		query += ` AND timestamp > ?`
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY timestamp DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.Feed
	for rows.Next() {
		var f models.Feed
		var ts, status string
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.PetID, &ts, &status, &f.AmountG); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		f.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		f.Status = models.FeedStatus(status)
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// SetFeedStatus moves a feed to a terminal status. Used by the actuator
// callback path, not by clients. The update is scoped to the owner so the
// write never touches another user's row; returns the updated feed,
// (nil, nil) when the feed does not exist for this owner.
func (db *ServerDB) SetFeedStatus(ownerID, feedID string, status models.FeedStatus) (*models.Feed, error) {
	if !models.IsValidFeedStatus(string(status)) {
		return nil, fmt.Errorf("invalid feed status %q", status)
	}
	res, err := db.conn.Exec(
		`UPDATE feeds SET status = ? WHERE id = ? AND owner_id = ?`, string(status), feedID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update feed status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	var f models.Feed
	var ts, st string
	err = db.conn.QueryRow(
		`SELECT id, owner_id, pet_id, timestamp, status, amount_g FROM feeds WHERE id = ?`, feedID).
		Scan(&f.ID, &f.OwnerID, &f.PetID, &ts, &st, &f.AmountG)
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	f.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	f.Status = models.FeedStatus(st)
	return &f, nil
}

// CreateSchedule inserts a recurring feeding schedule for a pet.
func (db *ServerDB) CreateSchedule(ownerID, petID, timeOfDay string, amountG int) (*models.Schedule, error) {
	s := &models.Schedule{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		PetID:     petID,
		TimeOfDay: timeOfDay,
		AmountG:   amountG,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	_, err := db.conn.Exec(
		`INSERT INTO schedules (id, owner_id, pet_id, time_of_day, amount_g, active, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)`,
		s.ID, s.OwnerID, s.PetID, s.TimeOfDay, s.AmountG, s.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	return s, nil
}

// ListSchedules returns the owner's schedules, optionally filtered by pet,
// ordered by time of day.
func (db *ServerDB) ListSchedules(ownerID, petID string) ([]models.Schedule, error) {
	query := `SELECT id, owner_id, pet_id, time_of_day, amount_g, active, created_at FROM schedules WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if petID != "" {
		query += ` AND pet_id = ?`
		args = append(args, petID)
	}
	query += ` ORDER BY time_of_day, id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		var active int
		var createdAt string
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.PetID, &s.TimeOfDay, &s.AmountG, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		s.Active = active != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// SetScheduleActive toggles a schedule. Returns the updated schedule,
// (nil, nil) when it does not exist for this owner.
func (db *ServerDB) SetScheduleActive(ownerID, scheduleID string, active bool) (*models.Schedule, error) {
	activeVal := 0
	if active {
		activeVal = 1
	}
	res, err := db.conn.Exec(
		`UPDATE schedules SET active = ? WHERE id = ? AND owner_id = ?`, activeVal, scheduleID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	var s models.Schedule
	var activeCol int
	var createdAt string
	err = db.conn.QueryRow(
		`SELECT id, owner_id, pet_id, time_of_day, amount_g, active, created_at FROM schedules WHERE id = ?`,
		scheduleID).Scan(&s.ID, &s.OwnerID, &s.PetID, &s.TimeOfDay, &s.AmountG, &activeCol, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	s.Active = activeCol != 0
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

// DeleteSchedule removes a schedule. Returns false when it does not exist
// for this owner.
func (db *ServerDB) DeleteSchedule(ownerID, scheduleID string) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM schedules WHERE id = ? AND owner_id = ?`, scheduleID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
