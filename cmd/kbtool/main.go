package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"ecocritique/internal/config"
	"ecocritique/internal/db"
	"ecocritique/internal/knowledge"
)

// kbtool manages the knowledge pool from the command line, mostly for
// preparing a course before the semester starts.
func main() {
	args := os.Args
	if len(args) < 2 {
		fmt.Println("Usage: go run cmd/kbtool/main.go seed")
		fmt.Println("       go run cmd/kbtool/main.go ingest <URL> [articleID]")
		fmt.Println("       go run cmd/kbtool/main.go list [articleID]")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load config.json: %v", err)
	}
	if err := db.Init(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var embed knowledge.EmbedFunc
	if cfg.Embedding.APIURL != "" {
		embedder := knowledge.NewEmbedder(cfg.Embedding.APIURL, cfg.Embedding.Model, os.Getenv(cfg.Embedding.APIKeyEnv))
		embed = embedder.Embed
	}
	var vector *knowledge.VectorStore
	if cfg.Qdrant.Enabled {
		vector, err = knowledge.NewVectorStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
		if err != nil {
			log.Fatalf("Failed to connect to Qdrant: %v", err)
		}
	}
	kb := knowledge.NewStore(db.DB, embed, vector)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	switch args[1] {
	case "seed":
		n, err := kb.SeedDefaults(ctx)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		if n == 0 {
			fmt.Println("Course-wide pool already seeded, nothing to do")
		} else {
			fmt.Printf("Seeded %d default snippets\n", n)
		}

	case "ingest":
		if len(args) < 3 {
			log.Fatalf("ingest needs a URL")
		}
		articleID := parseArticleID(args, 3)
		n, err := kb.Ingest(ctx, articleID, args[2])
		if err != nil {
			log.Fatalf("Ingest failed: %v", err)
		}
		fmt.Printf("Ingested %d snippets from %s (article %d)\n", n, args[2], articleID)

	case "list":
		articleID := parseArticleID(args, 2)
		snippets, err := kb.List(articleID)
		if err != nil {
			log.Fatalf("List failed: %v", err)
		}
		for _, s := range snippets {
			fmt.Printf("[%d] article=%d source=%q\n    %s\n", s.ID, s.ArticleID, s.Source, s.Text)
		}
		fmt.Printf("%d snippets\n", len(snippets))

	default:
		log.Fatalf("Unknown command %q", args[1])
	}
}

func parseArticleID(args []string, idx int) uint {
	if len(args) <= idx {
		return 0
	}
	id, err := strconv.ParseUint(args[idx], 10, 32)
	if err != nil {
		log.Fatalf("Invalid article ID %q", args[idx])
	}
	return uint(id)
}
