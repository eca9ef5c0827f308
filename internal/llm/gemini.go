package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	m := c.client.GenerativeModel(c.model)
	if req.Temperature > 0 {
		m.SetTemperature(req.Temperature)
	}
	if req.JSONMode {
		m.ResponseMIMEType = "application/json"
	}

	system, messages := splitSystem(req.Messages)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, t := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		m.Tools = []*genai.Tool{tool}
	}

	if len(messages) == 0 {
		return Response{}, fmt.Errorf("no messages to send")
	}

	cs := m.StartChat()
	for _, msg := range messages[:len(messages)-1] {
		cs.History = append(cs.History, toGeminiContent(msg))
	}
	last := toGeminiContent(messages[len(messages)-1])

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("no response candidates or content")
	}

	var out Response
	for i, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Content += string(p)
		case genai.FunctionCall:
			args, _ := json.Marshal(p.Args)
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				// Gemini does not issue call ids; synthesize stable ones.
				ID:        fmt.Sprintf("call-%d-%s", i, p.Name),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	return out, nil
}

func toGeminiContent(m Message) *genai.Content {
	switch m.Role {
	case RoleAssistant:
		content := &genai.Content{Role: "model"}
		if m.Content != "" {
			content.Parts = append(content.Parts, genai.Text(m.Content))
		}
		for _, tc := range m.ToolCalls {
			var args map[string]interface{}
			_ = json.Unmarshal([]byte(tc.Arguments), &args)
			content.Parts = append(content.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
		}
		return content
	case RoleTool:
		return &genai.Content{
			Role: "function",
			Parts: []genai.Part{genai.FunctionResponse{
				Name:     m.Name,
				Response: map[string]interface{}{"content": m.Content},
			}},
		}
	default:
		return &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}}
	}
}

// toGeminiSchema converts the flat object schemas used for tool parameters.
// Only object-of-strings is needed here; anything richer degrades to string.
func toGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	props, _ := params["properties"].(map[string]interface{})
	for name, raw := range props {
		prop := &genai.Schema{Type: genai.TypeString}
		if def, ok := raw.(map[string]interface{}); ok {
			if desc, ok := def["description"].(string); ok {
				prop.Description = desc
			}
		}
		schema.Properties[name] = prop
	}
	if required, ok := params["required"].([]string); ok {
		schema.Required = required
	}
	return schema
}
