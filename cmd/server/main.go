package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/azybler/route_engine/pkg/api"
	"github.com/azybler/route_engine/pkg/engine"
	"github.com/azybler/route_engine/pkg/storage"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A missing .env is fine; the real environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}

	defaultPort, err := strconv.Atoi(envOr("ROUTE_ENGINE_PORT", "8080"))
	if err != nil {
		log.Fatalf("Invalid ROUTE_ENGINE_PORT: %v", err)
	}

	dataset := flag.String("dataset", envOr("ROUTE_ENGINE_DATASET", "data.route"), "Path to the prepared dataset")
	port := flag.Int("port", defaultPort, "HTTP port")
	algorithm := flag.String("algorithm", envOr("ROUTE_ENGINE_ALGORITHM", "ch"), "Query algorithm: ch or mld")
	sharedMemory := flag.Bool("shared-memory", false, "Publish the dataset to the shared region and attach to it")
	corsOrigin := flag.String("cors-origin", envOr("ROUTE_ENGINE_CORS_ORIGIN", ""), "CORS allowed origin (empty = same-origin)")
	maxTable := flag.Int("max-table-size", 100, "Maximum table coordinates (0 = unlimited)")
	flag.Parse()

	alg, err := engine.ParseAlgorithm(*algorithm)
	if err != nil {
		log.Fatalf("Invalid algorithm: %v", err)
	}

	start := time.Now()
	if *sharedMemory {
		if _, err := storage.Publish(*dataset); err != nil {
			log.Fatalf("Failed to publish dataset: %v", err)
		}
	}

	cfg := engine.DefaultConfig(*dataset)
	cfg.Algorithm = alg
	cfg.UseSharedMemory = *sharedMemory
	cfg.MaxLocationsTable = *maxTable
	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open engine: %v", err)
	}
	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	// Setup HTTP server.
	srvCfg := api.DefaultConfig(fmt.Sprintf(":%d", *port))
	srvCfg.CORSOrigin = *corsOrigin
	srv := api.NewServer(srvCfg, api.NewHandlers(eng))

	if err := serve(srv, eng); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}

// serve runs srv until shutdown, then releases the engine.
func serve(srv *http.Server, eng io.Closer) error {
	defer eng.Close()
	return api.ListenAndServe(srv)
}
