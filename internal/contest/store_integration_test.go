package contest

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/contesthub/gateway/internal/db"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available; the unit tests still run and the
		// integration tests below skip gracefully.
		os.Exit(m.Run())
	}

	db.Connect(databaseURL)
	dbAvailable = true
	Init()

	os.Exit(m.Run())
}

// createTestParticipation inserts a unique contest, user and participation
// and registers cleanup for all three.
func createTestParticipation(t *testing.T) (*Contest, *User, *Participation) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	suffix := uuid.New().String()[:8]
	c := &Contest{
		Name:  fmt.Sprintf("testcontest_%s", suffix),
		Start: time.Now().Add(-time.Hour),
		Stop:  time.Now().Add(time.Hour),
	}
	if err := db.DB.Create(c).Error; err != nil {
		t.Fatalf("create contest: %v", err)
	}
	u := &User{
		Username:  fmt.Sprintf("testuser_%s", suffix),
		FirstName: "Test",
		LastName:  "User",
		Password:  "plaintext:secret",
	}
	if err := db.DB.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	p := &Participation{ContestID: c.ID, UserID: u.ID}
	if err := db.DB.Create(p).Error; err != nil {
		t.Fatalf("create participation: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("participation_id = ?", p.ID).Delete(&PrintJob{})
		db.DB.Delete(p)
		db.DB.Delete(u)
		db.DB.Delete(c)
	})
	return c, u, p
}

// TestCreateParticipationDuplicate verifies the unique-violation path:
// inserting the same (contest, user) pair twice resolves to the existing
// row instead of failing.
func TestCreateParticipationDuplicate(t *testing.T) {
	c, u, p := createTestParticipation(t)

	dup := &Participation{ContestID: c.ID, UserID: u.ID}
	if err := (Store{}).CreateParticipation(dup); err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if dup.ID != p.ID {
		t.Errorf("duplicate resolved to id %d, want existing %d", dup.ID, p.ID)
	}
}

// TestSetStartingTimeWriteOnce verifies the store-level write-once guard.
func TestSetStartingTimeWriteOnce(t *testing.T) {
	_, _, p := createTestParticipation(t)
	store := Store{}

	first := time.Now().Truncate(time.Second)
	if err := store.SetStartingTime(p.ID, first); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := store.SetStartingTime(p.ID, first.Add(time.Minute)); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second set = %v, want ErrAlreadyStarted", err)
	}

	reloaded, err := store.ParticipationFor(p.ContestID, p.UserID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.StartingTime == nil || !reloaded.StartingTime.Equal(first) {
		t.Errorf("starting time = %v, want %v", reloaded.StartingTime, first)
	}
}

// TestEventWindows verifies the open-interval queries of the three durable
// sources against real SQL predicates.
func TestEventWindows(t *testing.T) {
	c, _, p := createTestParticipation(t)
	store := Store{}

	base := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	ann := &Announcement{ContestID: c.ID, Timestamp: base, Subject: "s", Text: "t"}
	if err := db.DB.Create(ann).Error; err != nil {
		t.Fatalf("create announcement: %v", err)
	}
	t.Cleanup(func() { db.DB.Delete(ann) })

	inside, err := store.AnnouncementsBetween(c.ID, base.Add(-time.Minute), base.Add(time.Minute))
	if err != nil || len(inside) != 1 {
		t.Errorf("inside window: %d (%v), want 1", len(inside), err)
	}

	// Bounds are exclusive on both ends.
	atLower, err := store.AnnouncementsBetween(c.ID, base, base.Add(time.Minute))
	if err != nil || len(atLower) != 0 {
		t.Errorf("at lower bound: %d (%v), want 0", len(atLower), err)
	}
	atUpper, err := store.AnnouncementsBetween(c.ID, base.Add(-time.Minute), base)
	if err != nil || len(atUpper) != 0 {
		t.Errorf("at upper bound: %d (%v), want 0", len(atUpper), err)
	}

	if _, err := store.MessagesBetween(p.ID, base, base.Add(time.Minute)); err != nil {
		t.Errorf("messages query: %v", err)
	}
	if _, err := store.QuestionRepliesBetween(p.ID, base, base.Add(time.Minute)); err != nil {
		t.Errorf("questions query: %v", err)
	}
}
