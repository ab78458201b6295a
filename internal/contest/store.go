package contest

import (
	"errors"
	"time"

	"github.com/contesthub/gateway/internal/db"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = gorm.ErrRecordNotFound
	ErrAlreadyStarted = errors.New("starting time already set")
)

// Store is the gorm-backed access layer for contest data. Feature packages
// consume it through their own small interfaces so tests can swap in fakes.
type Store struct{}

func (Store) ContestByName(name string) (*Contest, error) {
	var c Contest
	if err := db.DB.First(&c, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (Store) UserByUsername(username string) (*User, error) {
	var u User
	if err := db.DB.First(&u, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (Store) ParticipationFor(contestID, userID int64) (*Participation, error) {
	var p Participation
	err := db.DB.First(&p, "contest_id = ? AND user_id = ?", contestID, userID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateParticipation inserts p, tolerating a concurrent insert for the
// same (user, contest): on a unique violation it reloads the winning row
// into p instead of failing.
func (s Store) CreateParticipation(p *Participation) error {
	err := db.DB.Create(p).Error
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		existing, lookupErr := s.ParticipationFor(p.ContestID, p.UserID)
		if lookupErr != nil {
			return err
		}
		*p = *existing
		return nil
	}
	return err
}

func (Store) UpdateUserPassword(userID int64, record string) error {
	return db.DB.Model(&User{}).Where("id = ?", userID).
		Update("password", record).Error
}

func (Store) UpdateParticipationPassword(participationID int64, record string) error {
	return db.DB.Model(&Participation{}).Where("id = ?", participationID).
		Update("password", record).Error
}

// SetStartingTime is write-once: the guard on starting_time IS NULL makes
// concurrent starts converge on a single winner.
func (Store) SetStartingTime(participationID int64, t time.Time) error {
	res := db.DB.Model(&Participation{}).
		Where("id = ? AND starting_time IS NULL", participationID).
		Update("starting_time", t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyStarted
	}
	return nil
}

func (Store) AnnouncementsBetween(contestID int64, after, before time.Time) ([]Announcement, error) {
	var out []Announcement
	err := db.DB.
		Where("contest_id = ? AND timestamp > ? AND timestamp < ?", contestID, after, before).
		Order("timestamp").
		Find(&out).Error
	return out, err
}

func (Store) MessagesBetween(participationID int64, after, before time.Time) ([]Message, error) {
	var out []Message
	err := db.DB.
		Where("participation_id = ? AND timestamp > ? AND timestamp < ?", participationID, after, before).
		Order("timestamp").
		Find(&out).Error
	return out, err
}

func (Store) QuestionRepliesBetween(participationID int64, after, before time.Time) ([]Question, error) {
	var out []Question
	err := db.DB.
		Where("participation_id = ? AND reply_timestamp > ? AND reply_timestamp < ?", participationID, after, before).
		Order("reply_timestamp").
		Find(&out).Error
	return out, err
}

func (Store) PrintJobsFor(participationID int64) ([]PrintJob, error) {
	var out []PrintJob
	err := db.DB.
		Where("participation_id = ?", participationID).
		Order("timestamp").
		Find(&out).Error
	return out, err
}

func (Store) CountPrintJobs(participationID int64) (int, error) {
	var count int64
	err := db.DB.Model(&PrintJob{}).
		Where("participation_id = ?", participationID).
		Count(&count).Error
	return int(count), err
}

func (Store) CreatePrintJob(job *PrintJob) error {
	return db.DB.Create(job).Error
}
