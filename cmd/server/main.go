package main

import (
	"log"

	"realestate-backend/internal/app"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	srv := app.New(cfg)

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := srv.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
