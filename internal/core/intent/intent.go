package intent

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/core/common"
	"github.com/vnedtech/scratchgraph/internal/llm"
)

const defaultPrompt = `You are a sub-module for a Search Engine over a Scratch Programming Knowledge Graph.
Your job is to extract the **Core Concepts** or **Entity Names** from the user's question.

RULES:
1. Return a JSON object: {"keywords": ["Key1", "Key2"]}.
2. Extract specific technical terms (e.g., "Loop", "Variable", "Event", "Sprite").
3. If the user asks about a specific block (e.g., "Move 10 steps"), extract the block name or type.
4. Include English translations if recognized (e.g. "Vòng lặp" -> "Loop").
5. **SPLIT** compound queries (e.g. "Types of Blocks" -> ["Block", "Type"]).
6. Keep it minimal (1-3 keywords).`

// minimum rune length for tokens kept by the naive fallback
const fallbackMinLength = 3

type keywordList struct {
	Keywords []string `json:"keywords"`
}

// Extractor turns a free-text question into normalized search keywords.
type Extractor struct {
	llm    llm.Client
	prompt string
	log    *zap.Logger
}

// NewExtractor builds an extractor. An empty prompt selects the stock one.
func NewExtractor(client llm.Client, prompt string, log *zap.Logger) *Extractor {
	if prompt == "" {
		prompt = defaultPrompt
	}
	return &Extractor{llm: client, prompt: prompt, log: log}
}

// Extract returns a deduplicated keyword set for the question. Extraction
// never fails: any model or parse error falls back to naive tokenization so
// retrieval always has something to work with.
func (e *Extractor) Extract(ctx context.Context, question string) []string {
	resp, err := e.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage(e.prompt),
			llm.UserMessage(question),
		},
		JSONMode: true,
	})
	if err != nil {
		e.log.Warn("keyword extraction failed, falling back to naive matching", zap.Error(err))
		return fallbackKeywords(question)
	}

	parsed, err := common.ParseJSON[keywordList](resp.Content)
	if err != nil {
		e.log.Warn("keyword extraction returned malformed JSON, falling back to naive matching", zap.Error(err))
		return fallbackKeywords(question)
	}

	// The model is told to split compound phrases, but re-split anyway.
	var keywords []string
	for _, k := range parsed.Keywords {
		if strings.ContainsAny(k, " \t") {
			keywords = append(keywords, strings.Fields(k)...)
		} else if k != "" {
			keywords = append(keywords, k)
		}
	}

	return dedupe(keywords)
}

// fallbackKeywords strips punctuation and keeps whitespace-delimited tokens
// longer than three characters.
func fallbackKeywords(question string) []string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, question)

	var keywords []string
	for _, w := range strings.Fields(clean) {
		if utf8.RuneCountInString(w) > fallbackMinLength {
			keywords = append(keywords, w)
		}
	}
	return dedupe(keywords)
}

func dedupe(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
