package main

import (
	"log"

	"github.com/contesthub/gateway/internal/config"
	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/db"
	"github.com/contesthub/gateway/internal/seeds"
)

func main() {
	config.Load()
	db.Connect(config.Cfg.DatabaseURL)
	contest.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeded demo contest")
}
