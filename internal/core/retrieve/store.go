package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/core/model"
	"github.com/vnedtech/scratchgraph/internal/driver"
)

// GraphStore reads entities and relations from the graph database, with an
// optional bounded TTL cache in front. Entities change only at ingestion
// time, so short-lived caching is safe and spares the store repeated lookups
// for popular keyword sets.
type GraphStore struct {
	driver driver.GraphDriver
	cache  *gocache.Cache
	log    *zap.Logger
}

// NewGraphStore wraps a graph driver. A non-positive ttl disables caching.
func NewGraphStore(d driver.GraphDriver, ttl time.Duration, log *zap.Logger) *GraphStore {
	var c *gocache.Cache
	if ttl > 0 {
		c = gocache.New(ttl, 2*ttl)
	}
	return &GraphStore{driver: d, cache: c, log: log}
}

func (s *GraphStore) FindCandidates(ctx context.Context, keywords []string) ([]model.Entity, error) {
	key := candidatesKey(keywords)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]model.Entity), nil
		}
	}

	terms := make([]interface{}, 0, len(keywords))
	for _, k := range keywords {
		terms = append(terms, k)
	}

	result, err := s.driver.ExecuteQuery(ctx, driver.MatchEntitiesQuery, map[string]interface{}{
		"terms": terms,
	})
	if err != nil {
		return nil, err
	}

	entities := make([]model.Entity, 0, len(result.Records))
	for _, rec := range result.Records {
		entities = append(entities, model.Entity{
			Name:        stringField(rec, "name"),
			Description: stringField(rec, "description"),
			Type:        stringField(rec, "type"),
		})
	}

	if s.cache != nil {
		s.cache.Set(key, entities, gocache.DefaultExpiration)
	}
	return entities, nil
}

func (s *GraphStore) Relations(ctx context.Context, entityName string, limit int) ([]model.Relation, error) {
	key := fmt.Sprintf("rel:%s:%d", strings.ToLower(entityName), limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]model.Relation), nil
		}
	}

	result, err := s.driver.ExecuteQuery(ctx, driver.EntityRelationsQuery, map[string]interface{}{
		"name":  entityName,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	relations := make([]model.Relation, 0, len(result.Records))
	for _, rec := range result.Records {
		relations = append(relations, model.Relation{
			Type:              stringField(rec, "relType"),
			TargetName:        stringField(rec, "target"),
			TargetDescription: stringField(rec, "targetDesc"),
			TargetType:        stringField(rec, "targetType"),
		})
	}

	if s.cache != nil {
		s.cache.Set(key, relations, gocache.DefaultExpiration)
	}
	return relations, nil
}

// candidatesKey normalizes a keyword set into a cache key: order and case
// must not matter.
func candidatesKey(keywords []string) string {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		normalized = append(normalized, strings.ToLower(k))
	}
	sort.Strings(normalized)
	return "kw:" + strings.Join(normalized, "|")
}

func stringField(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
