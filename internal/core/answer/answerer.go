package answer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/core/model"
	"github.com/vnedtech/scratchgraph/internal/llm"
	"github.com/vnedtech/scratchgraph/internal/websearch"
)

// WebSearchToolName is the single capability advertised to the model.
const WebSearchToolName = "web_search"

// state of the multi-turn tool-call protocol. The loop is a short-lived state
// machine rather than nested branching so each transition stays testable.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTool
	stateAwaitingFinalAnswer
)

// WebSearchTool declares the web-search capability offered to the model.
func WebSearchTool() llm.Tool {
	return llm.Tool{
		Name:        WebSearchToolName,
		Description: "Search the internet for up-to-date information about Scratch, programming, or specific blocks.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query to send to the search engine (e.g. 'Scratch loop block example').",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Answerer drives a language model that may autonomously invoke web search,
// managing the tool-call protocol end to end. Stateless between queries.
type Answerer struct {
	llm         llm.Client
	searcher    websearch.Searcher
	maxResults  int
	temperature float32
	log         *zap.Logger
}

func NewAnswerer(client llm.Client, searcher websearch.Searcher, maxResults int, temperature float32, log *zap.Logger) *Answerer {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Answerer{
		llm:         client,
		searcher:    searcher,
		maxResults:  maxResults,
		temperature: temperature,
		log:         log,
	}
}

// Run sends the conversation with the web-search tool offered. If the model
// answers directly, that text returns with AIKnowledge provenance. If it
// invokes the tool, every invocation is executed (failures are captured as
// tool content, never raised) and one final completion, without the tool,
// produces the answer with WebSearch provenance.
func (a *Answerer) Run(ctx context.Context, conversation []llm.Message) (string, model.Provenance, error) {
	msgs := conversation
	var pending []llm.ToolCall

	for st := stateAwaitingModel; ; {
		switch st {
		case stateAwaitingModel:
			resp, err := a.llm.Complete(ctx, llm.Request{
				Messages:    msgs,
				Tools:       []llm.Tool{WebSearchTool()},
				Temperature: a.temperature,
			})
			if err != nil {
				return "", "", fmt.Errorf("completion with tools failed: %w", err)
			}
			if len(resp.ToolCalls) == 0 {
				return resp.Content, model.ProvenanceAIKnowledge, nil
			}
			msgs = append(msgs, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			pending = resp.ToolCalls
			st = stateExecutingTool

		case stateExecutingTool:
			for _, tc := range pending {
				content := a.execute(ctx, tc)
				msgs = append(msgs, llm.ToolMessage(tc.ID, tc.Name, content))
			}
			pending = nil
			st = stateAwaitingFinalAnswer

		case stateAwaitingFinalAnswer:
			resp, err := a.llm.Complete(ctx, llm.Request{
				Messages:    msgs,
				Temperature: a.temperature,
			})
			if err != nil {
				return "", "", fmt.Errorf("final completion failed: %w", err)
			}
			return resp.Content, model.ProvenanceWebSearch, nil
		}
	}
}

// execute runs one tool invocation. Search failures come back as textual
// content so the model can explain them; they never abort the query.
func (a *Answerer) execute(ctx context.Context, tc llm.ToolCall) string {
	if tc.Name != WebSearchToolName {
		return fmt.Sprintf("Unknown tool: %s", tc.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil || args.Query == "" {
		return "Error performing search: missing query argument"
	}

	a.log.Info("model invoking web search", zap.String("query", args.Query))

	summary, err := a.searcher.Search(ctx, args.Query, a.maxResults)
	if err != nil {
		return fmt.Sprintf("Error performing search: %s", err.Error())
	}
	if summary == "" {
		return "No results found."
	}
	return summary
}
