package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	searchToolName = "search_products"
	// maxToolRounds bounds how many times the model may call back into the
	// catalog before it has to answer.
	maxToolRounds = 3
	// maxToolResults keeps the tool payload small.
	maxToolResults = 10
)

var ErrTooManyToolCalls = errors.New("assistant exceeded the tool call limit")

// CatalogSearcher is the read-only catalog view the assistant may query.
type CatalogSearcher interface {
	SearchProducts(ctx context.Context, query string, categoryID *int64) ([]models.Product, error)
}

// Assistant answers shopper questions about the catalog using Gemini.
type Assistant struct {
	client  *genai.Client
	model   string
	catalog CatalogSearcher
	log     *zap.Logger
}

// New initializes the Gemini client.
func New(ctx context.Context, apiKey, modelName string, catalog CatalogSearcher, log *zap.Logger) (*Assistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &Assistant{client: client, model: modelName, catalog: catalog, log: log}, nil
}

func (a *Assistant) Close() error {
	return a.client.Close()
}

var searchTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        searchToolName,
			Description: "Searches the store's products by name or description, optionally within one category.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {
						Type:        genai.TypeString,
						Description: "Words to look for in product names and descriptions. Empty lists everything.",
					},
					"category_id": {
						Type:        genai.TypeInteger,
						Description: "Only return products in this category.",
					},
				},
				Required: []string{"query"},
			},
		},
	},
}

const systemPrompt = `You are the shopping assistant of Greens, a grocery store for fresh and
traditional greens. Use the search_products tool to look up products before
answering questions about availability or price. Never invent products or
prices. Mention when something is low on stock or out of stock. Be concise.`

// Reply answers message, calling the catalog tool as needed. It returns the
// model's text and the number of tokens the exchange used.
func (a *Assistant) Reply(ctx context.Context, message string) (string, int, error) {
	model := a.client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{searchTool}
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}
	tokens := tokenCount(res)

	for round := 0; ; round++ {
		calls := functionCalls(res)
		if len(calls) == 0 {
			return replyText(res), tokens, nil
		}
		if round == maxToolRounds {
			return "", tokens, ErrTooManyToolCalls
		}

		responses := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			responses = append(responses, a.callTool(ctx, call))
		}

		res, err = cs.SendMessage(ctx, responses...)
		if err != nil {
			return "", tokens, fmt.Errorf("tool response error: %w", err)
		}
		// Usage metadata is cumulative for the chat.
		if n := tokenCount(res); n > tokens {
			tokens = n
		}
	}
}

// callTool runs one function call. Failures are reported back to the model
// as the tool result so it can tell the shopper.
func (a *Assistant) callTool(ctx context.Context, call genai.FunctionCall) genai.FunctionResponse {
	if call.Name != searchToolName {
		return toolError(call.Name, fmt.Sprintf("unknown function: %s", call.Name))
	}

	query, _ := call.Args["query"].(string)
	var categoryID *int64
	if raw, ok := call.Args["category_id"].(float64); ok && raw > 0 {
		id := int64(raw)
		categoryID = &id
	}

	a.log.Debug("Assistant searching catalog", zap.String("query", query), zap.Any("category_id", categoryID))

	products, err := a.catalog.SearchProducts(ctx, query, categoryID)
	if err != nil {
		a.log.Warn("Assistant catalog search failed", zap.Error(err))
		return toolError(searchToolName, "catalog search failed")
	}

	return genai.FunctionResponse{
		Name: searchToolName,
		Response: map[string]any{
			"total":    len(products),
			"products": summarize(products),
		},
	}
}

func toolError(name, msg string) genai.FunctionResponse {
	return genai.FunctionResponse{Name: name, Response: map[string]any{"error": msg}}
}

func summarize(products []models.Product) []map[string]any {
	if len(products) > maxToolResults {
		products = products[:maxToolResults]
	}
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"description":  p.Description,
			"price":        p.Price,
			"stock_status": p.StockStatus,
		})
	}
	return out
}

func functionCalls(res *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range firstCandidateParts(res) {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func replyText(res *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range firstCandidateParts(res) {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "Sorry, I don't have an answer for that."
	}
	return strings.TrimSpace(b.String())
}

func firstCandidateParts(res *genai.GenerateContentResponse) []genai.Part {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil
	}
	return res.Candidates[0].Content.Parts
}

func tokenCount(res *genai.GenerateContentResponse) int {
	if res == nil || res.UsageMetadata == nil {
		return 0
	}
	return int(res.UsageMetadata.TotalTokenCount)
}
