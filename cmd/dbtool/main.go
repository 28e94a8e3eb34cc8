package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"distance-oracle/internal/adapters/cache"
	"distance-oracle/internal/config"
	"distance-oracle/internal/platform/db"

	"github.com/joho/godotenv"
)

const usage = "usage: dbtool [init|purge]"

// dbtool manages the SQL distance cache table: init creates it, purge drops expired rows.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cmd := "init"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	switch cmd {
	case "init":
		log.Println("Initializing distance cache schema...")
		if err := cache.InitSchema(ctx, conn); err != nil {
			log.Fatalf("schema initialization failed: %v", err)
		}
		log.Println("Schema ready.")

	case "purge":
		n, err := cache.NewSQLStore(conn, nil).DeleteExpired(ctx)
		if err != nil {
			log.Fatalf("purge failed: %v", err)
		}
		log.Printf("Purged %d expired entries.", n)

	default:
		log.Fatal(usage)
	}
}
