package auth

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"strings"
	"time"

	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/session"
	"gorm.io/gorm"
)

// Reason codes distinguish login failures in the audit log. The response
// shown to the caller is identical for all of them.
type Reason string

const (
	ReasonNoSuchUser     Reason = "NoSuchUser"
	ReasonNotEnrolled    Reason = "NotEnrolled"
	ReasonBadPassword    Reason = "BadPassword"
	ReasonIPRejected     Reason = "IPRejected"
	ReasonHiddenRejected Reason = "HiddenRejected"
)

type LoginError struct {
	Reason Reason
}

func (e *LoginError) Error() string {
	return "login rejected: " + string(e.Reason)
}

var ErrClockNotStartable = errors.New("per-user clock cannot start now")

// CredentialStore is what the gateway needs from persistence.
type CredentialStore interface {
	UserByUsername(username string) (*contest.User, error)
	ParticipationFor(contestID, userID int64) (*contest.Participation, error)
	CreateParticipation(p *contest.Participation) error
	UpdateUserPassword(userID int64, record string) error
	UpdateParticipationPassword(participationID int64, record string) error
	SetStartingTime(participationID int64, t time.Time) error
}

type Gateway struct {
	Store  CredentialStore
	Signer *session.Signer

	// Secret keys the legacy password hash.
	Secret string
}

type LoginResult struct {
	User          *contest.User
	Participation *contest.Participation
	Token         string
}

// Login validates credentials and access policy for one contest and issues
// a signed session token. Failures come back as *LoginError; anything else
// is a collaborator failure.
func (g *Gateway) Login(c *contest.Contest, username, password, clientIP string, now time.Time) (*LoginResult, error) {
	user, err := g.Store.UserByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &LoginError{ReasonNoSuchUser}
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	participation, err := g.Store.ParticipationFor(c.ID, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !c.OpenParticipation {
			return nil, &LoginError{ReasonNotEnrolled}
		}
		// Create a participation on the fly.
		participation = &contest.Participation{ContestID: c.ID, UserID: user.ID}
		if err := g.Store.CreateParticipation(participation); err != nil {
			return nil, fmt.Errorf("participation create: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("participation lookup: %w", err)
	}

	record, err := ParseRecord(contest.EffectivePassword(user, participation))
	if err != nil {
		log.Printf("Unparseable password record for user %d: %v", user.ID, err)
		return nil, &LoginError{ReasonBadPassword}
	}

	if !record.Verify(password, g.Secret) {
		return nil, &LoginError{ReasonBadPassword}
	}

	if record.NeedsUpgrade() {
		g.upgradeRecord(user, participation, password)
	}

	// Access policy is evaluated only once the password checked out.
	if c.IPRestriction && participation.IP != "" && !ipMatches(clientIP, participation.IP) {
		return nil, &LoginError{ReasonIPRejected}
	}

	if participation.Hidden && c.BlockHiddenParticipations {
		return nil, &LoginError{ReasonHiddenRejected}
	}

	// Snapshot the stored value as it is after the upgrade attempt: the
	// session check compares it verbatim against the live record, and an
	// untagged legacy value must round-trip untagged if the rewrite did
	// not land.
	token, err := g.Signer.Issue(c.Name, session.Token{
		Username:        user.Username,
		PasswordPayload: contest.EffectivePassword(user, participation),
		IssuedAt:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("token issue: %w", err)
	}

	return &LoginResult{User: user, Participation: participation, Token: token}, nil
}

// upgradeRecord rewrites a weak record to bcrypt and persists it against
// whichever object owned the effective record, mutating the in-memory copy
// only once the write landed. A failed upgrade is only a missed
// optimization, so the login proceeds with the old record.
func (g *Gateway) upgradeRecord(user *contest.User, participation *contest.Participation, password string) {
	upgraded, err := NewBcryptRecord(password)
	if err != nil {
		log.Printf("Password upgrade failed for user %d: %v", user.ID, err)
		return
	}

	if participation.Password != "" {
		err = g.Store.UpdateParticipationPassword(participation.ID, upgraded.String())
		if err == nil {
			participation.Password = upgraded.String()
		}
	} else {
		err = g.Store.UpdateUserPassword(user.ID, upgraded.String())
		if err == nil {
			user.Password = upgraded.String()
		}
	}
	if err != nil {
		log.Printf("Password upgrade failed for user %d: %v", user.ID, err)
	}
}

// StartClock sets the write-once starting time of a per-user-time
// participation. Allowed only while the contest window is open and the
// clock has not started yet.
func (g *Gateway) StartClock(c *contest.Contest, p *contest.Participation, now time.Time) error {
	if c.PerUserTime <= 0 || p.Unrestricted {
		return ErrClockNotStartable
	}
	if p.StartingTime != nil {
		return contest.ErrAlreadyStarted
	}
	// An unstarted per-user clock sits in the pre phase for the whole
	// global window; the extra Start check excludes the time before it.
	if c.Phase(p, now) != contest.PhasePre || now.Before(c.Start) {
		return ErrClockNotStartable
	}
	if err := g.Store.SetStartingTime(p.ID, now); err != nil {
		return err
	}
	p.StartingTime = &now
	return nil
}

// ipMatches checks a client address against a bound address or CIDR.
func ipMatches(clientIP, bound string) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	if strings.Contains(bound, "/") {
		prefix, err := netip.ParsePrefix(bound)
		if err != nil {
			return false
		}
		return prefix.Contains(addr)
	}
	boundAddr, err := netip.ParseAddr(bound)
	if err != nil {
		return false
	}
	return addr == boundAddr
}
