package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDriver struct {
	records []*neo4j.Record
	calls   int
	queries []string
	params  []map[string]interface{}
}

func (f *fakeDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	f.calls++
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	return neo4j.EagerResult{Records: f.records}, nil
}

func (f *fakeDriver) BuildConstraints(ctx context.Context) error { return nil }

func (f *fakeDriver) Close(ctx context.Context) error { return nil }

func record(keys []string, values []interface{}) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func TestFindCandidatesParsesRecords(t *testing.T) {
	d := &fakeDriver{records: []*neo4j.Record{
		record(
			[]string{"name", "description", "type"},
			[]interface{}{"Loop", "repeats blocks", "Concept"},
		),
		record(
			[]string{"name", "description", "type"},
			[]interface{}{"Sprite", nil, "Concept"},
		),
	}}
	store := NewGraphStore(d, 0, zap.NewNop())

	entities, err := store.FindCandidates(context.Background(), []string{"loop", "sprite"})
	require.NoError(t, err)

	require.Len(t, entities, 2)
	assert.Equal(t, "Loop", entities[0].Name)
	assert.Equal(t, "repeats blocks", entities[0].Description)
	assert.Equal(t, "Concept", entities[0].Type)
	assert.Empty(t, entities[1].Description, "null field reads as empty string")

	require.Len(t, d.params, 1)
	assert.Equal(t, []interface{}{"loop", "sprite"}, d.params[0]["terms"])
}

func TestRelationsParsesRecords(t *testing.T) {
	d := &fakeDriver{records: []*neo4j.Record{
		record(
			[]string{"relType", "target", "targetDesc", "targetType"},
			[]interface{}{"HAS_PART", "Vòng lặp lồng nhau", "a loop inside a loop", "Concept"},
		),
	}}
	store := NewGraphStore(d, 0, zap.NewNop())

	rels, err := store.Relations(context.Background(), "Loop", 5)
	require.NoError(t, err)

	require.Len(t, rels, 1)
	assert.Equal(t, "HAS_PART", rels[0].Type)
	assert.Equal(t, "Vòng lặp lồng nhau", rels[0].TargetName)

	assert.Equal(t, "Loop", d.params[0]["name"])
	assert.Equal(t, 5, d.params[0]["limit"])
}

func TestFindCandidatesCacheHit(t *testing.T) {
	d := &fakeDriver{records: []*neo4j.Record{
		record([]string{"name", "description", "type"}, []interface{}{"Loop", "repeats", "Concept"}),
	}}
	store := NewGraphStore(d, time.Minute, zap.NewNop())

	first, err := store.FindCandidates(context.Background(), []string{"Loop"})
	require.NoError(t, err)
	// Same keyword set, different order and case: must hit the cache.
	second, err := store.FindCandidates(context.Background(), []string{"LOOP"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, d.calls)
}

func TestFindCandidatesCacheDisabled(t *testing.T) {
	d := &fakeDriver{}
	store := NewGraphStore(d, 0, zap.NewNop())

	_, err := store.FindCandidates(context.Background(), []string{"loop"})
	require.NoError(t, err)
	_, err = store.FindCandidates(context.Background(), []string{"loop"})
	require.NoError(t, err)

	assert.Equal(t, 2, d.calls)
}

func TestCandidatesKeyNormalization(t *testing.T) {
	assert.Equal(t,
		candidatesKey([]string{"Vòng Lặp", "loop"}),
		candidatesKey([]string{"LOOP", "vòng lặp"}),
	)
	assert.NotEqual(t,
		candidatesKey([]string{"loop"}),
		candidatesKey([]string{"loop", "sprite"}),
	)
}
