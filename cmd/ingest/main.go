package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/driver"
	"github.com/vnedtech/scratchgraph/internal/ingest"
	"github.com/vnedtech/scratchgraph/internal/llm"
)

var (
	flagConfig   string
	flagWipe     bool
	flagFile     string
	flagInputDir string
)

func main() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract entities and relations from text files into the knowledge graph",
		RunE:  run,
	}
	cmd.Flags().StringVar(&flagConfig, "config", "config/config.toml", "path to the TOML config file")
	cmd.Flags().BoolVar(&flagWipe, "wipe", false, "wipe the database before ingesting")
	cmd.Flags().StringVar(&flagFile, "file", "", "ingest only this file (relative to the input dir)")
	cmd.Flags().StringVar(&flagInputDir, "input-dir", "", "directory of .txt files to ingest (overrides config)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.LoadWithEnv(flagConfig)
	if err != nil {
		return err
	}
	inputDir := cfg.Ingest.InputDir
	if flagInputDir != "" {
		inputDir = flagInputDir
	}

	ctx := context.Background()

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	defer d.Close(ctx)

	client, _, err := llm.NewClients(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	ingestor := ingest.NewIngestor(d, client, cfg.Ingest, cfg.Prompts.Extraction, logger)

	if flagWipe {
		if err := ingestor.Wipe(ctx); err != nil {
			return fmt.Errorf("failed to wipe database: %w", err)
		}
	}

	files, err := collectFiles(inputDir, flagFile)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no .txt files found, nothing to ingest", zap.String("dir", inputDir))
		return nil
	}

	for _, f := range files {
		if err := ingestor.ExtractFromFile(ctx, f); err != nil {
			return err
		}
	}

	if ingestor.EntityCount() == 0 {
		logger.Warn("no entities extracted, skipping database ingestion")
		return nil
	}
	return ingestor.Ingest(ctx)
}

func collectFiles(inputDir, only string) ([]string, error) {
	if only != "" {
		path := filepath.Join(inputDir, only)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir '%s': %w", inputDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		files = append(files, filepath.Join(inputDir, entry.Name()))
	}
	return files, nil
}
