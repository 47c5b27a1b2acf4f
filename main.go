package main

import (
	"log"
	"os"

	"moderation-bot/bot"
	"moderation-bot/config"
	"moderation-bot/gateway"
	"moderation-bot/handlers"
	"moderation-bot/moderation"
	moddb "moderation-bot/utils/database/moderation"
	"moderation-bot/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := moddb.Init(cfg.ModDBPath)
	if err != nil {
		log.Fatalf("Error initializing moderation database: %v", err)
	}

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	enforcement := gateway.New(b.GetSession(), b)
	service := moderation.NewService(db, enforcement)
	sweep := moderation.NewSweep(service, cfg.SweepInterval, cfg.SweepWorkers)
	b.AttachService(service, sweep)

	handlers.Register(b)

	app := web.NewApp(service)
	go func() {
		log.Printf("Read-only web API listening on %s", cfg.WebAddr)
		if err := app.Listen(cfg.WebAddr); err != nil {
			log.Printf("Web API stopped: %v", err)
		}
	}()

	b.Run()

	defer b.Close()
}
