package retrieve

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/core/model"
)

// fakeStore mimics the store's candidate semantics: any entity whose name or
// description contains a keyword, case-insensitively.
type fakeStore struct {
	entities  []model.Entity
	neighbors map[string][]model.Relation
}

func (f *fakeStore) FindCandidates(ctx context.Context, keywords []string) ([]model.Entity, error) {
	var out []model.Entity
	for _, e := range f.entities {
		for _, kw := range keywords {
			term := strings.ToLower(kw)
			if strings.Contains(strings.ToLower(e.Name), term) ||
				strings.Contains(strings.ToLower(e.Description), term) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) Relations(ctx context.Context, entityName string, limit int) ([]model.Relation, error) {
	rels := f.neighbors[entityName]
	if len(rels) > limit {
		rels = rels[:limit]
	}
	return rels, nil
}

func newTestRetriever(store Store) *Retriever {
	return NewRetriever(store, config.RetrievalConfig{}, zap.NewNop())
}

func TestScoreWeights(t *testing.T) {
	loop := model.Entity{Name: "Loop", Description: "a control structure"}

	assert.Equal(t, 10, Score(loop, []string{"loop"}), "exact name match")
	assert.Equal(t, 10, Score(loop, []string{"LOOP"}), "exact match is case-insensitive")
	assert.Equal(t, 5, Score(model.Entity{Name: "Forever Loop"}, []string{"loop"}), "name substring")
	assert.Equal(t, 2, Score(model.Entity{Name: "Repeat", Description: "a loop block"}, []string{"loop"}), "description only")
	assert.Equal(t, 0, Score(model.Entity{Name: "Sprite", Description: "a character"}, []string{"loop"}))
}

func TestScoreAdditiveAcrossKeywords(t *testing.T) {
	e := model.Entity{Name: "Control Blocks", Description: "loops and conditions"}

	a := Score(e, []string{"control"})
	b := Score(e, []string{"loop"})
	both := Score(e, []string{"control", "loop"})

	assert.Equal(t, a+b, both, "no cross-term interaction")
}

func TestScoreRankingOrder(t *testing.T) {
	// Exact > name substring > description hit, for a single keyword.
	exact := Score(model.Entity{Name: "Loop"}, []string{"loop"})
	substring := Score(model.Entity{Name: "Nested Loop"}, []string{"loop"})
	desc := Score(model.Entity{Name: "Repeat", Description: "runs a loop"}, []string{"loop"})

	assert.Greater(t, exact, substring)
	assert.Greater(t, substring, desc)
	assert.Greater(t, desc, 0)
}

func TestRetrieveMissYieldsEmptyBundle(t *testing.T) {
	store := &fakeStore{entities: []model.Entity{
		{Name: "Sprite", Description: "a character on stage"},
	}}
	r := newTestRetriever(store)

	bundle, err := r.Retrieve(context.Background(), []string{"quantum"})

	require.NoError(t, err)
	assert.Equal(t, 0, bundle.NodeCount())
	assert.Empty(t, bundle.Text())
	assert.Empty(t, bundle.Graph().Nodes)
	assert.Empty(t, bundle.Graph().Edges)
}

func TestRetrieveNoKeywords(t *testing.T) {
	r := newTestRetriever(&fakeStore{})

	bundle, err := r.Retrieve(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, bundle.NodeCount())
}

func TestRetrieveKeepsTopFive(t *testing.T) {
	store := &fakeStore{}
	// One exact match and six weaker substring matches.
	store.entities = append(store.entities, model.Entity{Name: "Loop", Description: "repeats"})
	for i := 0; i < 6; i++ {
		store.entities = append(store.entities, model.Entity{
			Name:        fmt.Sprintf("Loop Variant %d", i),
			Description: "a variation",
		})
	}
	r := newTestRetriever(store)

	bundle, err := r.Retrieve(context.Background(), []string{"loop"})

	require.NoError(t, err)
	assert.Equal(t, 5, bundle.NodeCount())
	// The exact match outranks every substring match.
	assert.Equal(t, "Loop", bundle.Graph().Nodes[0].ID)
}

func TestRetrieveOneHopExpansion(t *testing.T) {
	store := &fakeStore{
		entities: []model.Entity{
			{Name: "Loop", Type: "Concept", Description: "repeats blocks"},
		},
		neighbors: map[string][]model.Relation{
			"Loop": {{
				Type:              "HAS_PART",
				TargetName:        "Vòng lặp lồng nhau",
				TargetDescription: "a loop inside a loop",
				TargetType:        "Concept",
			}},
		},
	}
	r := newTestRetriever(store)

	bundle, err := r.Retrieve(context.Background(), []string{"Loop"})
	require.NoError(t, err)

	lines := strings.Split(bundle.Text(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ENTITY: Loop (repeats blocks)", lines[0])
	assert.Equal(t, "  - HAS_PART -> Vòng lặp lồng nhau (a loop inside a loop)", lines[1])

	graph := bundle.Graph()
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "Loop", graph.Nodes[0].ID)
	assert.Equal(t, "Vòng lặp lồng nhau", graph.Nodes[1].ID)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, model.GraphEdge{Source: "Loop", Target: "Vòng lặp lồng nhau", Label: "HAS_PART"}, graph.Edges[0])
}

func TestRetrieveNodeRegistrationIsIdempotent(t *testing.T) {
	// "Nested Loop" appears both as a ranked match and as Loop's neighbor;
	// it must surface as exactly one display node.
	store := &fakeStore{
		entities: []model.Entity{
			{Name: "Loop", Description: "repeats blocks"},
			{Name: "Nested Loop", Description: "a loop inside a loop"},
		},
		neighbors: map[string][]model.Relation{
			"Loop": {{Type: "HAS_PART", TargetName: "Nested Loop", TargetDescription: "a loop inside a loop"}},
		},
	}
	r := newTestRetriever(store)

	bundle, err := r.Retrieve(context.Background(), []string{"loop"})
	require.NoError(t, err)

	graph := bundle.Graph()
	count := 0
	for _, n := range graph.Nodes {
		if n.ID == "Nested Loop" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, graph.Edges, 1)
}

func TestRetrieveRelationLimit(t *testing.T) {
	neighbors := make([]model.Relation, 0, 8)
	for i := 0; i < 8; i++ {
		neighbors = append(neighbors, model.Relation{
			Type:       "USES",
			TargetName: fmt.Sprintf("Block %d", i),
		})
	}
	store := &fakeStore{
		entities:  []model.Entity{{Name: "Loop", Description: "repeats"}},
		neighbors: map[string][]model.Relation{"Loop": neighbors},
	}
	r := newTestRetriever(store)

	bundle, err := r.Retrieve(context.Background(), []string{"loop"})
	require.NoError(t, err)

	// 1 matched entity + at most 5 expanded neighbors.
	assert.Equal(t, 6, bundle.NodeCount())
	assert.Len(t, bundle.Graph().Edges, 5)
}
