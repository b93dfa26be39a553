package main

import (
	"fmt"
	"log"

	"ssdf-compass/internal/config"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
