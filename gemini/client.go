package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/chain"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chain.Model = (*Client)(nil)

// Client implements [chain.Model] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the model ID requests are sent to.
func (c *Client) Model() string { return c.model }

// Stream sends a streaming request to the Gemini API and returns a
// [chain.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req chain.Request) (chain.Stream, error) {
	contents := ConvertHistory(req.History, req.Prompt)
	config := buildConfig(req)

	iter := c.client.Models.GenerateContentStream(ctx, c.model, contents, config)
	return NewStreamFromIter(ctx, iter), nil
}

func buildConfig(req chain.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}

	if req.Prompt.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.Prompt.System}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertHistory converts prior turns plus the new prompt to genai Contents.
// Each prior turn expands to its prompting user content, the model content
// (text and function calls), and a user content carrying the function
// responses, in that order. Exported for testing.
func ConvertHistory(history []chain.Response, prompt chain.Prompt) []*genai.Content {
	var result []*genai.Content
	for _, r := range history {
		if c := promptContent(r.Prompt); c != nil {
			result = append(result, c)
		}
		if c := modelContent(r); c != nil {
			result = append(result, c)
		}
		if c := resultsContent(r.ToolResults); c != nil {
			result = append(result, c)
		}
	}
	if c := promptContent(prompt); c != nil {
		result = append(result, c)
	}
	return result
}

// promptContent returns the user content for a prompt, or nil when the
// prompt carries no text or attachments. Tool-round continuation turns
// carry only a system prompt and produce no user content.
func promptContent(p chain.Prompt) *genai.Content {
	var parts []*genai.Part
	if p.Text != "" {
		parts = append(parts, &genai.Part{Text: p.Text})
	}
	for _, a := range p.Attachments {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: a.MimeType,
				Data:     a.Data,
			},
		})
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: "user", Parts: parts}
}

func modelContent(r chain.Response) *genai.Content {
	var parts []*genai.Part
	if r.Text != "" {
		parts = append(parts, &genai.Part{Text: r.Text})
	}
	for _, call := range r.ToolCalls {
		// Arguments is json.RawMessage — always valid JSON from domain types.
		var args map[string]any
		_ = json.Unmarshal(call.Arguments, &args)
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: args,
			},
		})
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: "model", Parts: parts}
}

func resultsContent(results []chain.ToolResult) *genai.Content {
	if len(results) == 0 {
		return nil
	}
	parts := make([]*genai.Part, len(results))
	for i, tr := range results {
		var responseMap map[string]any
		if tr.IsError {
			responseMap = map[string]any{"error": tr.Output}
		} else {
			responseMap = map[string]any{"output": tr.Output}
		}
		parts[i] = &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       tr.ToolCallID,
				Name:     tr.Name,
				Response: responseMap,
			},
		}
	}
	return &genai.Content{Role: "user", Parts: parts}
}

// ConvertTools converts chain ToolSchemas to genai Tools.
// Exported for testing.
func ConvertTools(tools []chain.ToolSchema) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		// Parameters is json.RawMessage — always valid JSON from domain types.
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
