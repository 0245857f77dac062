package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ai-companion-be/internal/bootstrap"
	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/pkg/database"
)

func main() {
	turnsPath := flag.String("turns", "", "path to a JSON file with an array of turn requests")
	flag.Parse()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: the pipeline runs in-memory without it)
	gormDB, err := openDatabase(cfg)
	if err != nil {
		log.Printf("[WARN] Unable to connect to GORM DB: %v. Running without context archive", err)
	}

	// 3. Initialize Redis (optional)
	rdb := openRedis(cfg)

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, rdb, cfg)
	defer container.Logger.Sync()

	// 5. Start Background Services
	if container.ConsumerService != nil {
		go func() {
			log.Println("Background: Starting Archive Consumer...")
			if err := container.ConsumerService.Consume(context.Background()); err != nil {
				log.Printf("Background Consumer Error: %v", err)
			}
		}()
	}

	// 6. Process Turns
	if *turnsPath == "" {
		log.Fatal("usage: pipeline -turns <turns.json>")
	}
	if err := processTurns(context.Background(), container, *turnsPath); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING not set")
	}
	return database.NewGormDBFromDSN(cfg.Database.Connection)
}

func openRedis(cfg *config.Config) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	return redis.NewClient(opt)
}

func processTurns(ctx context.Context, container *bootstrap.Container, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read turns file: %w", err)
	}

	var requests []*dto.ProcessTurnRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return fmt.Errorf("parse turns file: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	for i, req := range requests {
		resp, err := container.TurnService.ProcessTurn(ctx, req)
		if err != nil {
			log.Printf("[ERROR] Turn %d rejected: %v", i, err)
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return nil
}
