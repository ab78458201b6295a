package seeds

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/contesthub/gateway/internal/auth"
	"github.com/contesthub/gateway/internal/config"
	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/db"
)

// SeedAll loads a demo contest with one user per password scheme, handy for
// exercising the login flow and the scheme upgrade path locally.
func SeedAll() error {
	demo := contest.Contest{
		Name:              "demo",
		Description:       "Demo contest",
		Start:             time.Now().Add(-1 * time.Hour),
		Stop:              time.Now().Add(24 * time.Hour),
		OpenParticipation: true,
		PrintingEnabled:   true,
	}
	if err := db.DB.FirstOrCreate(&demo, contest.Contest{Name: "demo"}).Error; err != nil {
		return err
	}

	strong, err := auth.NewBcryptRecord("secret")
	if err != nil {
		return err
	}

	legacySum := sha256.Sum256([]byte("secret" + config.Cfg.SecretKey))

	users := []contest.User{
		{Username: "alice", FirstName: "Alice", LastName: "Plain",
			Password: "plaintext:secret"},
		{Username: "bob", FirstName: "Bob", LastName: "Legacy",
			Password: "legacy:" + hex.EncodeToString(legacySum[:])},
		{Username: "carol", FirstName: "Carol", LastName: "Strong",
			Password: strong.String()},
	}
	for i := range users {
		if err := db.DB.FirstOrCreate(&users[i], contest.User{Username: users[i].Username}).Error; err != nil {
			return err
		}
		p := contest.Participation{ContestID: demo.ID, UserID: users[i].ID}
		if err := db.DB.FirstOrCreate(&p, contest.Participation{ContestID: demo.ID, UserID: users[i].ID}).Error; err != nil {
			return err
		}
	}
	return nil
}
