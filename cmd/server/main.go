package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ecocritique/internal/api"
	"ecocritique/internal/article"
	"ecocritique/internal/config"
	"ecocritique/internal/dashboard"
	"ecocritique/internal/db"
	"ecocritique/internal/knowledge"
	"ecocritique/internal/llm"
	redisdb "ecocritique/internal/redis"
	"ecocritique/internal/socratic"
	"ecocritique/internal/tutor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if cfg.UnidocLicenseKeyEnv != "" {
		if err := article.SetPDFLicense(os.Getenv(cfg.UnidocLicenseKeyEnv)); err != nil {
			log.Printf("[Main] WARNING: PDF license rejected: %v", err)
		}
	}

	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}

	rdb := redisdb.NewClient(cfg)
	if err := redisdb.Ping(rdb); err != nil {
		log.Printf("[Main] WARNING: Redis unreachable, sessions will fail: %v", err)
	}

	templates := socratic.DefaultTemplates()
	if cfg.Tutor.TemplatesPath != "" {
		templates, err = socratic.LoadTemplates(cfg.Tutor.TemplatesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Template error: %v\n", err)
			os.Exit(1)
		}
		log.Printf("[Main] Loaded question templates from %s", cfg.Tutor.TemplatesPath)
	}
	engine, err := socratic.NewEngine(templates, socratic.Params{
		AdvanceThreshold:    cfg.Tutor.AdvanceThreshold,
		SnippetsPerPrompt:   cfg.Tutor.SnippetsPerPrompt,
		RecentTurns:         cfg.Tutor.RecentTurns,
		MinQualifyingLength: cfg.Tutor.MinQualifyingLength,
		MinQualifyingWords:  cfg.Tutor.MinQualifyingWords,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Engine error: %v\n", err)
		os.Exit(1)
	}

	// Knowledge pool: embeddings via the configured API, vectors in Qdrant
	// when enabled, relational fallback otherwise.
	var embed knowledge.EmbedFunc
	if cfg.Embedding.APIURL != "" {
		embedder := knowledge.NewEmbedder(cfg.Embedding.APIURL, cfg.Embedding.Model, os.Getenv(cfg.Embedding.APIKeyEnv))
		embed = embedder.Embed
	} else {
		log.Printf("[Main] No embedding API configured; snippet retrieval disabled")
	}
	var vector *knowledge.VectorStore
	if cfg.Qdrant.Enabled {
		vector, err = knowledge.NewVectorStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Qdrant error: %v\n", err)
			os.Exit(1)
		}
		log.Printf("[Main] Qdrant vector search enabled (collection %s)", cfg.Qdrant.Collection)
	}
	kb := knowledge.NewStore(db.DB, embed, vector)
	if embed != nil {
		n, err := kb.SeedDefaults(context.Background())
		if err != nil {
			log.Printf("[Main] WARNING: Failed to seed default knowledge: %v", err)
		} else if n > 0 {
			log.Printf("[Main] Seeded %d default knowledge snippets", n)
		}
	}

	var generator llm.Generator
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	switch cfg.LLM.Provider {
	case "anthropic":
		generator = llm.NewAnthropicGenerator(cfg.LLM, apiKey)
	default:
		generator = llm.NewOpenAIGenerator(cfg.LLM, apiKey)
	}
	client := llm.NewClient(generator, cfg.LLM)
	log.Printf("[Main] Tutor model: %s via %s", cfg.LLM.Model, cfg.LLM.Provider)

	var retriever knowledge.Retriever
	if embed != nil {
		retriever = kb
	}
	svc := tutor.NewService(db.DB, engine, retriever, client)
	agg := dashboard.NewAggregator(db.DB)

	r := api.SetupRouter(cfg, rdb, svc, kb, agg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
