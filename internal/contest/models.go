package contest

import "time"

type Contest struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Description string `json:"description"`

	Start time.Time `gorm:"not null" json:"start"`
	Stop  time.Time `gorm:"not null" json:"stop"`

	// PerUserTime > 0 means each participation runs on its own clock,
	// started by the user, instead of the global window.
	PerUserTime int64 `gorm:"default:0;not null" json:"per_user_time"`

	OpenParticipation         bool `gorm:"default:false;not null" json:"open_participation"`
	IPRestriction             bool `gorm:"default:true;not null" json:"ip_restriction"`
	BlockHiddenParticipations bool `gorm:"default:false;not null" json:"block_hidden_participations"`
	PrintingEnabled           bool `gorm:"default:false;not null" json:"printing_enabled"`

	Announcements []*Announcement `json:"-"`
}

type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Username  string `gorm:"unique;not null" json:"username"`

	// Password is a scheme-tagged record, e.g. "bcrypt:$2a$...".
	Password string `gorm:"not null" json:"-"`

	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

type Participation struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	ContestID int64 `gorm:"not null;uniqueIndex:idx_user_contest" json:"contest_id"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_user_contest" json:"user_id"`

	Contest *Contest `json:"-"`
	User    *User    `json:"-"`

	// Password, when set, overrides the user's record for this contest.
	Password string `json:"-"`

	// IP is an optional bound address or CIDR checked at login when the
	// contest enforces IP restriction.
	IP string `json:"-"`

	Hidden       bool `gorm:"default:false;not null" json:"hidden"`
	Unrestricted bool `gorm:"default:false;not null" json:"unrestricted"`

	// StartingTime is write-once: set when the user starts their
	// per-user clock, never cleared or moved.
	StartingTime *time.Time `json:"starting_time"`
}

type Announcement struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ContestID int64     `gorm:"not null;index" json:"contest_id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Subject   string    `gorm:"not null" json:"subject"`
	Text      string    `gorm:"not null" json:"text"`
}

type Message struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	ParticipationID int64     `gorm:"not null;index" json:"participation_id"`
	Timestamp       time.Time `gorm:"not null;index" json:"timestamp"`
	Subject         string    `gorm:"not null" json:"subject"`
	Text            string    `gorm:"not null" json:"text"`
}

type Question struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	ParticipationID int64     `gorm:"not null;index" json:"participation_id"`
	Timestamp       time.Time `gorm:"not null" json:"timestamp"`
	Subject         string    `gorm:"not null" json:"subject"`
	Text            string    `gorm:"not null" json:"text"`

	ReplyTimestamp *time.Time `gorm:"index" json:"reply_timestamp"`
	ReplySubject   string     `json:"reply_subject"`
	ReplyText      string     `json:"reply_text"`
}

type PrintJob struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	ParticipationID int64     `gorm:"not null;index" json:"participation_id"`
	Timestamp       time.Time `gorm:"not null" json:"timestamp"`
	Filename        string    `gorm:"not null" json:"filename"`
	Digest          string    `gorm:"not null" json:"digest"`
}

func (Contest) TableName() string       { return "contest.contests" }
func (User) TableName() string          { return "contest.users" }
func (Participation) TableName() string { return "contest.participations" }
func (Announcement) TableName() string  { return "contest.announcements" }
func (Message) TableName() string       { return "contest.messages" }
func (Question) TableName() string      { return "contest.questions" }
func (PrintJob) TableName() string      { return "contest.print_jobs" }
