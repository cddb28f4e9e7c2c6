// File: services/concierge/gemini.go
package concierge

import (
	"context"
	"fmt"
	"strings"

	"bookline/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is the production LLMClient. A fresh model instance is built
// per chat so tool bindings and system instructions never leak across
// requests.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (g *GeminiClient) StartChat(systemPrompt string, history []models.ChatTurn) ChatSession {
	model := g.client.GenerativeModel(g.modelName)
	model.Tools = toolDeclarations()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	cs := model.StartChat()
	for _, turn := range history {
		role := "user"
		if turn.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}
	return &geminiSession{cs: cs}
}

type geminiSession struct {
	cs *genai.ChatSession
}

func (s *geminiSession) SendText(ctx context.Context, text string) (*TurnResponse, error) {
	resp, err := s.cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini send error: %w", err)
	}
	return parseResponse(resp)
}

func (s *geminiSession) SendToolResults(ctx context.Context, results []ToolResult) (*TurnResponse, error) {
	parts := make([]genai.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, genai.FunctionResponse{
			Name:     r.Name,
			Response: map[string]interface{}{"result": r.Result},
		})
	}
	resp, err := s.cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini tool response error: %w", err)
	}
	return parseResponse(resp)
}

func parseResponse(resp *genai.GenerateContentResponse) (*TurnResponse, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	out := &TurnResponse{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			out.Calls = append(out.Calls, ToolCall{Name: p.Name, Args: p.Args})
		}
	}
	out.Text = sb.String()
	return out, nil
}

// toolDeclarations describes the deterministic toolset to the model. The
// actual execution lives in tools.go; names must stay in sync.
func toolDeclarations() []*genai.Tool {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "save_identity",
				Description: "Record the customer's name once they introduce themselves.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"name": str("The customer's full name")},
					Required:   []string{"name"},
				},
			},
			{
				Name:        "update_crm",
				Description: "Update the customer's CRM record with preferences or remarks.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":  str("The customer's full name, if mentioned"),
						"notes": str("Free-form remarks worth remembering"),
					},
				},
			},
			{
				Name:        "read_agenda",
				Description: "Read the business agenda for one day before proposing or confirming slots.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"date": str("Day to read, YYYY-MM-DD, or 'today'/'tomorrow'")},
					Required:   []string{"date"},
				},
			},
			{
				Name:        "create_appointment",
				Description: "Book an appointment after the customer agreed on service, date and time.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"client_name": str("The customer's name"),
						"service":     str("Catalog service name, exactly as listed"),
						"date":        str("YYYY-MM-DD, or 'today'/'tomorrow'"),
						"time":        str("24h start time, HH:MM"),
					},
					Required: []string{"service", "date", "time"},
				},
			},
			{
				Name:        "update_appointment",
				Description: "Move the customer's upcoming appointment to a new date and time.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date": str("New date, YYYY-MM-DD, or 'today'/'tomorrow'"),
						"time": str("New 24h start time, HH:MM"),
					},
					Required: []string{"date", "time"},
				},
			},
			{
				Name:        "delete_appointment",
				Description: "Cancel the customer's upcoming appointment.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
		},
	}}
}
