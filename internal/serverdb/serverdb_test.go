package serverdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/feedr/feedr/internal/models"
)

func newTestDB(t *testing.T) *ServerDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "feedr.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateUserAndLookup(t *testing.T) {
	db := newTestDB(t)

	u, err := db.CreateUser("Alice@Example.COM", "hash1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: got %s", u.Email)
	}

	got, err := db.GetUserByEmail("alice@example.com")
	if err != nil || got == nil {
		t.Fatalf("get by email: %v, %v", got, err)
	}
	if got.ID != u.ID {
		t.Errorf("id: got %s, want %s", got.ID, u.ID)
	}

	if _, err := db.CreateUser("alice@example.com", "hash2"); err != ErrEmailTaken {
		t.Errorf("duplicate email: got %v, want ErrEmailTaken", err)
	}

	missing, err := db.GetUserByEmail("nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("missing user: got %v, %v, want nil, nil", missing, err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	db := newTestDB(t)

	u, err := db.CreateUser("bob@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := db.CreateToken(u.ID)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := db.VerifyToken(token)
	if err != nil || got == nil {
		t.Fatalf("verify: %v, %v", got, err)
	}
	if got.ID != u.ID {
		t.Errorf("verified user: got %s, want %s", got.ID, u.ID)
	}

	if got, err := db.VerifyToken("fdr_bogus"); err != nil || got != nil {
		t.Errorf("bogus token: got %v, %v, want nil, nil", got, err)
	}

	if err := db.RevokeToken(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got, err := db.VerifyToken(token); err != nil || got != nil {
		t.Errorf("revoked token: got %v, %v, want nil, nil", got, err)
	}
}

func TestProfileIdempotent(t *testing.T) {
	db := newTestDB(t)

	u, _ := db.CreateUser("carol@example.com", "hash")

	if has, _ := db.HasProfile(u.ID); has {
		t.Fatal("profile exists before creation")
	}
	if err := db.CreateProfile(u.ID, u.Email); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := db.CreateProfile(u.ID, u.Email); err != nil {
		t.Fatalf("second create profile: %v", err)
	}
	if has, _ := db.HasProfile(u.ID); !has {
		t.Fatal("profile missing after creation")
	}
}

func TestPetCRUDOwnerScoped(t *testing.T) {
	db := newTestDB(t)

	owner, _ := db.CreateUser("owner@example.com", "hash")
	other, _ := db.CreateUser("other@example.com", "hash")

	p, err := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	pets, err := db.ListPets(owner.ID)
	if err != nil || len(pets) != 1 {
		t.Fatalf("list pets: got %d, %v, want 1", len(pets), err)
	}

	// Other owners see nothing and cannot delete.
	if pets, _ := db.ListPets(other.ID); len(pets) != 0 {
		t.Errorf("cross-owner list: got %d pets, want 0", len(pets))
	}
	if ok, _ := db.DeletePet(other.ID, p.ID); ok {
		t.Error("cross-owner delete succeeded")
	}

	if ok, err := db.DeletePet(owner.ID, p.ID); err != nil || !ok {
		t.Fatalf("delete pet: ok=%v err=%v", ok, err)
	}
	if pets, _ := db.ListPets(owner.ID); len(pets) != 0 {
		t.Errorf("pets after delete: got %d, want 0", len(pets))
	}
}

func TestCreatePetRejectsInvalid(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")

	if _, err := db.CreatePet(owner.ID, "", models.PetCat, 4); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := db.CreatePet(owner.ID, "Mr Whiskers", models.PetType("dragon"), 4); err == nil {
		t.Error("invalid type accepted")
	}
}

func TestFeedsNewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)

	var last *models.Feed
	for i := 0; i < 5; i++ {
		f, err := db.InsertFeed(owner.ID, p.ID, 50+i)
		if err != nil {
			t.Fatalf("insert feed %d: %v", i, err)
		}
		last = f
		time.Sleep(2 * time.Millisecond)
	}

	feeds, err := db.ListFeeds(owner.ID, p.ID, time.Time{}, 3)
	if err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if len(feeds) != 3 {
		t.Fatalf("limit: got %d feeds, want 3", len(feeds))
	}
	if feeds[0].ID != last.ID {
		t.Errorf("newest first: got %s at index 0, want %s", feeds[0].ID, last.ID)
	}
	for i := 1; i < len(feeds); i++ {
		if feeds[i].Timestamp.After(feeds[i-1].Timestamp) {
			t.Errorf("ordering violated at index %d", i)
		}
	}
	if feeds[0].Status != models.FeedPending {
		t.Errorf("new feed status: got %s, want %s", feeds[0].Status, models.FeedPending)
	}
}

func TestListFeedsSince(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)

	first, _ := db.InsertFeed(owner.ID, p.ID, 50)
	time.Sleep(2 * time.Millisecond)
	db.InsertFeed(owner.ID, p.ID, 60)

	feeds, err := db.ListFeeds(owner.ID, p.ID, first.Timestamp, 0)
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(feeds) != 1 || feeds[0].AmountG != 60 {
		t.Fatalf("since filter: got %d feeds, want the one after the cutoff", len(feeds))
	}
}

func TestSetFeedStatus(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)
	f, _ := db.InsertFeed(owner.ID, p.ID, 50)

	updated, err := db.SetFeedStatus(owner.ID, f.ID, models.FeedCompleted)
	if err != nil || updated == nil {
		t.Fatalf("set status: %v, %v", updated, err)
	}
	if updated.Status != models.FeedCompleted {
		t.Errorf("status: got %s, want %s", updated.Status, models.FeedCompleted)
	}

	if got, err := db.SetFeedStatus(owner.ID, "missing", models.FeedFailed); err != nil || got != nil {
		t.Errorf("missing feed: got %v, %v, want nil, nil", got, err)
	}
	if _, err := db.SetFeedStatus(owner.ID, f.ID, models.FeedStatus("eaten")); err == nil {
		t.Error("invalid status accepted")
	}
}

func TestSetFeedStatusScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	other, _ := db.CreateUser("other@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)
	f, _ := db.InsertFeed(owner.ID, p.ID, 50)

	if got, err := db.SetFeedStatus(other.ID, f.ID, models.FeedCompleted); err != nil || got != nil {
		t.Fatalf("cross-owner update: got %v, %v, want nil, nil", got, err)
	}

	feeds, err := db.ListFeeds(owner.ID, p.ID, time.Time{}, 0)
	if err != nil || len(feeds) != 1 {
		t.Fatalf("list feeds: %v, %d records", err, len(feeds))
	}
	if feeds[0].Status != models.FeedPending {
		t.Errorf("status after rejected update: got %s, want %s", feeds[0].Status, models.FeedPending)
	}
}

func TestDeletePetCascades(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)
	db.InsertFeed(owner.ID, p.ID, 50)
	db.CreateSchedule(owner.ID, p.ID, "08:00", 40)

	if ok, err := db.DeletePet(owner.ID, p.ID); err != nil || !ok {
		t.Fatalf("delete pet: ok=%v err=%v", ok, err)
	}
	if feeds, _ := db.ListFeeds(owner.ID, p.ID, time.Time{}, 0); len(feeds) != 0 {
		t.Errorf("feeds after cascade: got %d, want 0", len(feeds))
	}
	if schedules, _ := db.ListSchedules(owner.ID, p.ID); len(schedules) != 0 {
		t.Errorf("schedules after cascade: got %d, want 0", len(schedules))
	}
}

func TestScheduleCRUD(t *testing.T) {
	db := newTestDB(t)
	owner, _ := db.CreateUser("owner@example.com", "hash")
	p, _ := db.CreatePet(owner.ID, "Rex", models.PetDog, 12.5)

	s, err := db.CreateSchedule(owner.ID, p.ID, "08:00", 40)
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if !s.Active {
		t.Error("new schedule not active")
	}

	if _, err := db.CreateSchedule(owner.ID, p.ID, "8am", 40); err == nil {
		t.Error("invalid time of day accepted")
	}

	db.CreateSchedule(owner.ID, p.ID, "18:30", 40)
	schedules, err := db.ListSchedules(owner.ID, p.ID)
	if err != nil || len(schedules) != 2 {
		t.Fatalf("list: got %d, %v, want 2", len(schedules), err)
	}
	if schedules[0].TimeOfDay != "08:00" {
		t.Errorf("ordering: got %s first, want 08:00", schedules[0].TimeOfDay)
	}

	updated, err := db.SetScheduleActive(owner.ID, s.ID, false)
	if err != nil || updated == nil {
		t.Fatalf("toggle: %v, %v", updated, err)
	}
	if updated.Active {
		t.Error("schedule still active after toggle")
	}

	if got, _ := db.SetScheduleActive("other-owner", s.ID, true); got != nil {
		t.Error("cross-owner toggle succeeded")
	}

	if ok, err := db.DeleteSchedule(owner.ID, s.ID); err != nil || !ok {
		t.Fatalf("delete schedule: ok=%v err=%v", ok, err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedr.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()

	// Reopen the same file: schema is current, nothing to run.
	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	n, err := db2.RunMigrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if n != 0 {
		t.Errorf("migrations run on current schema: got %d, want 0", n)
	}
}
