package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/contesthub/gateway/internal/auth"
	"github.com/contesthub/gateway/internal/config"
	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/db"
	"github.com/contesthub/gateway/internal/middleware"
	"github.com/contesthub/gateway/internal/notifications"
	"github.com/contesthub/gateway/internal/printing"
	"github.com/contesthub/gateway/internal/session"
	"github.com/contesthub/gateway/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	config.Load()
	db.Connect(config.Cfg.DatabaseURL)
	contest.Init()

	store := contest.Store{}
	signer := session.NewSigner(config.Cfg.SecretKey)

	content, err := storage.NewFSStore(config.Cfg.StorageDir)
	if err != nil {
		log.Fatal("Failed to open content store: ", err)
	}

	// With Redis the sink and the print queue are shared across replicas;
	// without it both stay in-process.
	var sink notifications.Sink = notifications.NewMemorySink()
	var queue printing.Queue = printing.LogQueue{}
	if config.Cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.Cfg.RedisAddr})
		sink = notifications.NewRedisSink(client)
		queue = printing.NewRedisQueue(client)
	}

	authHandlers := &auth.Handlers{Gateway: &auth.Gateway{
		Store:  store,
		Signer: signer,
		Secret: config.Cfg.SecretKey,
	}}
	notifHandlers := &notifications.Handlers{
		Aggregator: &notifications.Aggregator{Source: store, Sink: sink},
		Signer:     signer,
	}
	printHandlers := &printing.Handlers{Intake: &printing.Intake{
		Store:          store,
		Content:        content,
		Queue:          queue,
		Sink:           sink,
		MaxJobsPerUser: config.Cfg.MaxJobsPerUser,
		MaxPrintLength: config.Cfg.MaxPrintLength,
	}}

	loginLimit := middleware.RateLimitMiddleware(config.Cfg.LoginRatePerSec, config.Cfg.LoginRateBurst)
	authed := middleware.AuthMiddleware(store, signer)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Route("/{contest}", func(r chi.Router) {
		r.Use(middleware.ContestMiddleware(store))
		authHandlers.Register(r, loginLimit, authed)
		notifHandlers.Register(r, authed)
		printHandlers.Register(r, authed)
	})

	fmt.Println("Server listening on port :" + config.Cfg.Port + "...")

	http.ListenAndServe("0.0.0.0:"+config.Cfg.Port, r)
}
