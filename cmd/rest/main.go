package main

import (
	"context"
	"log"

	"ai-kindergarten-be/internal/bootstrap"
	"ai-kindergarten-be/internal/config"
	"ai-kindergarten-be/internal/server"
	"ai-kindergarten-be/internal/tracer"
	"ai-kindergarten-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.EnsureVectorExtension(gormDB); err != nil {
		log.Printf("[WARN] Could not ensure pgvector extension: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// Warm the vector index so semantic routing works from the first
	// request. Persisted embeddings make this cheap on restart.
	go func() {
		log.Println("Background: Building vector index...")
		if err := container.VectorIndex.Rebuild(context.Background()); err != nil {
			log.Printf("Background Index Build Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
