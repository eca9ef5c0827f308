package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/core/model"
)

// Relevance weights. Exact name match outranks name substring, which outranks
// a description-only hit; contributions are additive across keywords.
const (
	scoreExactName    = 10
	scoreNameContains = 5
	scoreDescContains = 2
)

// Store is the graph-store collaborator the retriever reads from. It must be
// safe for concurrent use.
type Store interface {
	// FindCandidates returns every entity whose name or description contains
	// any of the keywords, case-insensitively.
	FindCandidates(ctx context.Context, keywords []string) ([]model.Entity, error)
	// Relations returns up to limit outgoing relations of the named entity.
	Relations(ctx context.Context, entityName string, limit int) ([]model.Relation, error)
}

// Retriever ranks graph entities against extracted keywords and expands the
// winners one hop into a context bundle.
type Retriever struct {
	store        Store
	topEntities  int
	maxRelations int
	log          *zap.Logger
}

func NewRetriever(store Store, cfg config.RetrievalConfig, log *zap.Logger) *Retriever {
	topEntities := cfg.TopEntities
	if topEntities <= 0 {
		topEntities = 5
	}
	maxRelations := cfg.MaxRelations
	if maxRelations <= 0 {
		maxRelations = 5
	}
	return &Retriever{
		store:        store,
		topEntities:  topEntities,
		maxRelations: maxRelations,
		log:          log,
	}
}

// Score computes the relevance of an entity for a keyword set. This is the
// core ranking policy: deterministic and explainable, no embeddings, no fuzzy
// matching, so a ranking can always be audited by hand.
func Score(e model.Entity, keywords []string) int {
	name := strings.ToLower(e.Name)
	desc := strings.ToLower(e.Description)

	total := 0
	for _, kw := range keywords {
		term := strings.ToLower(kw)
		switch {
		case name == term:
			total += scoreExactName
		case strings.Contains(name, term):
			total += scoreNameContains
		case strings.Contains(desc, term):
			total += scoreDescContains
		}
	}
	return total
}

// Retrieve scores and ranks candidate entities, keeps the top matches, and
// expands each by one hop. A query matching nothing yields an empty bundle —
// the retrieval-miss state the orchestrator treats as "graph has no answer".
func (r *Retriever) Retrieve(ctx context.Context, keywords []string) (*model.ContextBundle, error) {
	bundle := model.NewContextBundle()
	if len(keywords) == 0 {
		return bundle, nil
	}

	candidates, err := r.store.FindCandidates(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("candidate lookup failed: %w", err)
	}

	type scored struct {
		entity model.Entity
		score  int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		if s := Score(e, keywords); s > 0 {
			ranked = append(ranked, scored{entity: e, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > r.topEntities {
		ranked = ranked[:r.topEntities]
	}

	for _, c := range ranked {
		e := c.entity
		bundle.AddLine(fmt.Sprintf("ENTITY: %s (%s)", e.Name, e.Description))
		bundle.AddNode(model.GraphNode{
			ID:    e.Name,
			Label: e.Name,
			Title: e.Description,
			Group: groupOf(e.Type),
		})

		relations, err := r.store.Relations(ctx, e.Name, r.maxRelations)
		if err != nil {
			return nil, fmt.Errorf("relation lookup for '%s' failed: %w", e.Name, err)
		}
		for _, rel := range relations {
			bundle.AddLine(fmt.Sprintf("  - %s -> %s (%s)", rel.Type, rel.TargetName, rel.TargetDescription))
			bundle.AddNode(model.GraphNode{
				ID:    rel.TargetName,
				Label: rel.TargetName,
				Title: rel.TargetDescription,
				Group: groupOf(rel.TargetType),
			})
			bundle.AddEdge(model.GraphEdge{
				Source: e.Name,
				Target: rel.TargetName,
				Label:  rel.Type,
			})
		}
	}

	r.log.Info("graph retrieval completed",
		zap.Strings("keywords", keywords),
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", bundle.NodeCount()))

	return bundle, nil
}

func groupOf(entityType string) string {
	if entityType == "" {
		return "Entity"
	}
	return entityType
}
