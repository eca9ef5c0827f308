package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/core"
	"github.com/vnedtech/scratchgraph/internal/core/answer"
	"github.com/vnedtech/scratchgraph/internal/core/intent"
	"github.com/vnedtech/scratchgraph/internal/core/retrieve"
	"github.com/vnedtech/scratchgraph/internal/driver"
	"github.com/vnedtech/scratchgraph/internal/llm"
	"github.com/vnedtech/scratchgraph/internal/server"
	"github.com/vnedtech/scratchgraph/internal/websearch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadWithEnv(cfgPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, logger)
	if err != nil {
		logger.Fatal("failed to connect to Neo4j", zap.Error(err))
	}
	defer d.Close(context.Background())

	answerClient, intentClient, err := llm.NewClients(context.Background(), cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize LLM clients", zap.Error(err))
	}

	store := retrieve.NewGraphStore(d, time.Duration(cfg.Retrieval.CacheTTLSeconds)*time.Second, logger)
	retriever := retrieve.NewRetriever(store, cfg.Retrieval, logger)
	extractor := intent.NewExtractor(intentClient, cfg.Prompts.Intent, logger)
	searcher := websearch.NewSerperClient(cfg.WebSearch, logger)
	answerer := answer.NewAnswerer(answerClient, searcher, cfg.WebSearch.MaxResults, cfg.LLM.Temperature, logger)

	engine := core.NewEngine(extractor, retriever, answerer, answerClient, cfg, logger)

	srv := server.New(engine, logger)
	r := srv.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("starting server", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
