package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/core/common"
	"github.com/vnedtech/scratchgraph/internal/core/model"
	"github.com/vnedtech/scratchgraph/internal/driver"
	"github.com/vnedtech/scratchgraph/internal/llm"
)

const defaultExtractionPrompt = `You are an expert Data Extractor for a Knowledge Graph about Scratch Programming.
Your task is to extract **Entities** and **Relationships** from the provided text.

RULES:
1. **ENTITIES**:
   - Extract key terms: Concepts (e.g., Loop, Variable), Blocks (e.g., Move 10 steps), UI Elements (e.g., Stage, Sprite).
   - Ignore generic terms (Chapter, Exercise).
   - Output: {"name": "X", "type": "Type", "description": "Short def"}

2. **RELATIONSHIPS**:
   - Identify how these specific entities relate *based on the text*.
   - Use standard types: IS_A, HAS_PART, USES, CONTROLS, DEFINES, RELATED_TO.
   - Output: {"source": "EntityA", "target": "EntityB", "type": "RELATION", "description": "Context"}

3. **OUTPUT FORMAT**:
   Return a single JSON object:
   {
     "entities": [...],
     "relationships": [...]
   }`

// Chunks shorter than this after trimming carry no extractable signal.
const minChunkLength = 50

// Ingestor runs the batch pipeline that populates the graph: chunked text,
// parallel LLM extraction, merged results, MERGE upserts into the store.
// It accumulates across files; call Ingest once at the end.
type Ingestor struct {
	driver    driver.GraphDriver
	llm       llm.Client
	prompt    string
	chunkSize int
	workers   int
	log       *zap.Logger

	mu        sync.Mutex
	entities  map[string]model.ExtractedEntity
	relations []model.ExtractedRelation
}

func NewIngestor(d driver.GraphDriver, client llm.Client, cfg config.IngestConfig, prompt string, log *zap.Logger) *Ingestor {
	if prompt == "" {
		prompt = defaultExtractionPrompt
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 3000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 3
	}
	return &Ingestor{
		driver:    d,
		llm:       client,
		prompt:    prompt,
		chunkSize: chunkSize,
		workers:   workers,
		log:       log,
		entities:  map[string]model.ExtractedEntity{},
	}
}

func (in *Ingestor) ExtractFromFile(ctx context.Context, path string) error {
	in.log.Info("reading file", zap.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return in.ExtractFromText(ctx, string(data))
}

// ExtractFromText splits the text into chunks and extracts entities and
// relations from each chunk in parallel, bounded by the worker limit.
// A failed chunk is logged and skipped; one bad chunk must not sink a file.
func (in *Ingestor) ExtractFromText(ctx context.Context, text string) error {
	chunks := chunk(text, in.chunkSize)
	in.log.Info("split into chunks", zap.Int("count", len(chunks)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for i, c := range chunks {
		if len(strings.TrimSpace(c)) < minChunkLength {
			continue
		}
		i, c := i, c
		g.Go(func() error {
			result, err := in.extractChunk(ctx, c)
			if err != nil {
				in.log.Error("chunk extraction failed", zap.Int("chunk", i), zap.Error(err))
				return nil
			}
			in.merge(result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	in.log.Info("extraction complete",
		zap.Int("entities", len(in.entities)),
		zap.Int("relations", len(in.relations)))
	return nil
}

func (in *Ingestor) extractChunk(ctx context.Context, content string) (model.ExtractionResult, error) {
	resp, err := in.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage(in.prompt),
			llm.UserMessage(content),
		},
		JSONMode: true,
	})
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("llm call failed: %w", err)
	}
	return common.ParseJSON[model.ExtractionResult](resp.Content)
}

func (in *Ingestor) merge(result model.ExtractionResult) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, e := range result.Entities {
		if e.Name == "" {
			continue
		}
		in.entities[e.Name] = e
	}
	in.relations = append(in.relations, result.Relations...)
}

// Ingest upserts the accumulated entities and relations. Relations whose
// endpoints were not extracted in this run are skipped.
func (in *Ingestor) Ingest(ctx context.Context) error {
	if len(in.entities) == 0 {
		in.log.Warn("no entities extracted, skipping ingestion")
		return nil
	}

	if err := in.driver.BuildConstraints(ctx); err != nil {
		return fmt.Errorf("failed to build constraints: %w", err)
	}

	in.log.Info("ingesting nodes", zap.Int("count", len(in.entities)))
	for name, e := range in.entities {
		entityType := e.Type
		if entityType == "" {
			entityType = "General"
		}
		_, err := in.driver.ExecuteQuery(ctx, driver.MergeEntityQuery, map[string]interface{}{
			"name":        name,
			"type":        entityType,
			"description": e.Description,
		})
		if err != nil {
			return fmt.Errorf("failed to merge entity '%s': %w", name, err)
		}
	}

	in.log.Info("ingesting relations", zap.Int("count", len(in.relations)))
	for _, rel := range in.relations {
		if rel.Source == "" || rel.Target == "" {
			continue
		}
		if _, ok := in.entities[rel.Source]; !ok {
			continue
		}
		if _, ok := in.entities[rel.Target]; !ok {
			continue
		}
		relType := rel.Type
		if relType == "" {
			relType = "RELATED_TO"
		}
		_, err := in.driver.ExecuteQuery(ctx, driver.MergeRelationQuery, map[string]interface{}{
			"source":      rel.Source,
			"target":      rel.Target,
			"type":        relType,
			"description": rel.Description,
		})
		if err != nil {
			return fmt.Errorf("failed to merge relation %s->%s: %w", rel.Source, rel.Target, err)
		}
	}

	in.log.Info("ingestion complete")
	return nil
}

// Wipe deletes every node and relationship in the store.
func (in *Ingestor) Wipe(ctx context.Context) error {
	in.log.Warn("wiping graph database")
	_, err := in.driver.ExecuteQuery(ctx, driver.WipeQuery, nil)
	return err
}

func (in *Ingestor) EntityCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entities)
}

// chunk splits by rune count so multi-byte characters never straddle a cut.
func chunk(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
