package contest

import (
	"log"

	"github.com/contesthub/gateway/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "contest"); err != nil {
		log.Fatal("Failed to ensure schema contest: ", err)
	}

	if err := db.DB.AutoMigrate(
		&Contest{}, &User{}, &Participation{},
		&Announcement{}, &Message{}, &Question{}, &PrintJob{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
