package core

import (
	"context"
	"strings"

	"github.com/vnedtech/scratchgraph/internal/core/model"
	"github.com/vnedtech/scratchgraph/internal/llm"
)

type MockLLM struct {
	Response      llm.Response
	ResponseQueue []llm.Response
	Err           error
	Requests      []llm.Request
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return llm.Response{}, m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

// MockStore serves candidates the way the graph store would: entities whose
// name or description contains any keyword, case-insensitively.
type MockStore struct {
	Entities  []model.Entity
	Neighbors map[string][]model.Relation
	Err       error
}

func (m *MockStore) FindCandidates(ctx context.Context, keywords []string) ([]model.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Entity
	for _, e := range m.Entities {
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

func (m *MockStore) Relations(ctx context.Context, entityName string, limit int) ([]model.Relation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rels := m.Neighbors[entityName]
	if len(rels) > limit {
		rels = rels[:limit]
	}
	return rels, nil
}

type MockSearcher struct {
	Summary string
	Err     error
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) (string, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Summary, nil
}
