// This file is used to run database migrations
// How to run:
// go run cmd/migrate/main.go
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/reelforge/reelforge/config"
	"github.com/reelforge/reelforge/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	port := db.DefaultPort
	if raw := os.Getenv("DB_PORT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid DB_PORT %q: %v", raw, err)
		}
		port = n
	}

	// db.New runs the schema migration as part of connecting.
	_, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
		Port:     port,
	})
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration complete")
}
