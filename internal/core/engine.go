package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
	"github.com/vnedtech/scratchgraph/internal/core/answer"
	"github.com/vnedtech/scratchgraph/internal/core/intent"
	"github.com/vnedtech/scratchgraph/internal/core/model"
	"github.com/vnedtech/scratchgraph/internal/core/retrieve"
	"github.com/vnedtech/scratchgraph/internal/llm"
)

const defaultSystemPrompt = `You are a helpful assistant powered by a Knowledge Graph and Web Search.
PRIORITY:
1. Use the provided [GRAPH CONTEXT] if available and relevant.
2. If the context is empty or you need more info, you can call the 'web_search' tool.
3. Answer in Vietnamese.`

// errorAnswer is the fixed user-facing message for the Error provenance.
const errorAnswer = "Lỗi xử lý."

// Engine is the escalation orchestrator: per query it decides whether to
// answer from graph context, escalate to web search, or force web search,
// and labels the provenance of whatever comes back. It holds no query-scoped
// state; collaborators must be safe for concurrent use.
type Engine struct {
	intents        *intent.Extractor
	retriever      *retrieve.Retriever
	answerer       *answer.Answerer
	llm            llm.Client
	refusalMarkers []string
	systemPrompt   string
	temperature    float32
	log            *zap.Logger
}

func NewEngine(
	intents *intent.Extractor,
	retriever *retrieve.Retriever,
	answerer *answer.Answerer,
	client llm.Client,
	cfg *config.Config,
	log *zap.Logger,
) *Engine {
	markers := cfg.Escalation.RefusalMarkers
	if len(markers) == 0 {
		markers = config.DefaultRefusalMarkers()
	}
	systemPrompt := cfg.Prompts.System
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Engine{
		intents:        intents,
		retriever:      retriever,
		answerer:       answerer,
		llm:            client,
		refusalMarkers: markers,
		systemPrompt:   systemPrompt,
		temperature:    cfg.LLM.Temperature,
		log:            log,
	}
}

// Search answers a question. It always returns a well-formed result; internal
// failures surface only as the Error provenance, never as an error value.
//
// Precedence: forced mode > graph-found > graph-empty. Within graph-found,
// the model's own choice to invoke the tool beats refusal-text detection.
func (e *Engine) Search(ctx context.Context, question string, forceWebSearch bool) model.AnswerResult {
	log := e.log.With(zap.String("query_id", uuid.NewString()))

	// Retrieval always runs first, even under forced mode, so every query
	// logs what the graph had. Forced mode discards the bundle for display.
	keywords := e.intents.Extract(ctx, question)
	log.Info("search terms extracted", zap.Strings("keywords", keywords))

	bundle, err := e.retriever.Retrieve(ctx, keywords)
	if err != nil {
		log.Error("graph retrieval failed", zap.Error(err))
		return errorResult(model.EmptyGraph())
	}

	msgs := []llm.Message{llm.SystemMessage(e.systemPrompt)}

	if forceWebSearch {
		log.Info("forced web search triggered")
		msgs = append(msgs, llm.UserMessage(fmt.Sprintf("Please verify this on the web: %s", question)))

		text, source, err := e.answerer.Run(ctx, msgs)
		if err != nil {
			log.Error("forced web search failed", zap.Error(err))
			return errorResult(model.EmptyGraph())
		}
		return model.AnswerResult{Answer: text, Graph: model.EmptyGraph(), Source: source}
	}

	if bundle.NodeCount() > 0 {
		return e.answerFromGraph(ctx, log, question, bundle)
	}

	// Retrieval miss: fall back to the web tool.
	log.Info("graph context empty, auto-switching to web tool")
	msgs = append(msgs, llm.UserMessage(fmt.Sprintf("I cannot find information in the database. Please search the web for: %s", question)))

	text, source, err := e.answerer.Run(ctx, msgs)
	if err != nil {
		log.Error("empty-graph fallback failed", zap.Error(err))
		return errorResult(bundle.Graph())
	}
	return model.AnswerResult{Answer: text, Graph: bundle.Graph(), Source: source}
}

// answerFromGraph tries to answer from retrieved context, with the tool still
// offered. Escalation to web search (by tool call or by refusal text)
// discards the graph context from the display.
func (e *Engine) answerFromGraph(ctx context.Context, log *zap.Logger, question string, bundle *model.ContextBundle) model.AnswerResult {
	msgs := []llm.Message{
		llm.SystemMessage(e.systemPrompt),
		llm.UserMessage(graphContextPrompt(bundle.Text(), question)),
	}

	resp, err := e.llm.Complete(ctx, llm.Request{
		Messages:    msgs,
		Tools:       []llm.Tool{answer.WebSearchTool()},
		Temperature: e.temperature,
	})
	if err != nil {
		log.Error("graph-context completion failed", zap.Error(err))
		return errorResult(bundle.Graph())
	}

	if len(resp.ToolCalls) > 0 {
		log.Info("model chose web tool despite graph context")
		text, _, err := e.answerer.Run(ctx, msgs)
		if err != nil {
			log.Error("web tool escalation failed", zap.Error(err))
			return errorResult(bundle.Graph())
		}
		return model.AnswerResult{Answer: text, Graph: model.EmptyGraph(), Source: model.ProvenanceWebSearch}
	}

	if e.isRefusal(resp.Content) {
		// The model may apologize instead of literally finding nothing;
		// that counts as a miss and triggers escalation.
		log.Info("graph answer refusal detected, retrying with web tool")
		msgs = append(msgs,
			llm.AssistantMessage(resp.Content),
			llm.UserMessage("The graph didn't have it. Please search the web."),
		)
		text, _, err := e.answerer.Run(ctx, msgs)
		if err != nil {
			log.Error("refusal escalation failed", zap.Error(err))
			return errorResult(bundle.Graph())
		}
		return model.AnswerResult{Answer: text, Graph: model.EmptyGraph(), Source: model.ProvenanceWebSearch}
	}

	return model.AnswerResult{Answer: resp.Content, Graph: bundle.Graph(), Source: model.ProvenanceGraphRAG}
}

func (e *Engine) isRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range e.refusalMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func graphContextPrompt(context, question string) string {
	return fmt.Sprintf(`[GRAPH CONTEXT]:
%s

USER QUESTION: %s

Answer based on the context. If it's completely irrelevant, you may use the web_search tool.`, context, question)
}

func errorResult(graph model.GraphData) model.AnswerResult {
	return model.AnswerResult{Answer: errorAnswer, Graph: graph, Source: model.ProvenanceError}
}
