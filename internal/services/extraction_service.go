package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"billdesk/internal/invoicing"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

var (
	ErrAIUnavailable    = errors.New("ai extraction is not configured")
	ErrEmptyPrompt      = errors.New("prompt is required")
	ErrNoJSONObject     = errors.New("no JSON object found in AI response")
	ErrAllModelsFailed  = errors.New("all AI models failed")
	ErrInvalidAIPayload = errors.New("invalid JSON returned by AI")
)

// ExtractionResult is the normalized draft plus the model that produced it.
type ExtractionResult struct {
	Model   string                     `json:"model"`
	Invoice invoicing.ExtractedInvoice `json:"invoice"`
}

type ExtractionService interface {
	Extract(ctx context.Context, text string) (*ExtractionResult, error)
}

// responder sends one prompt to one model and returns the raw text output.
type responder interface {
	Respond(ctx context.Context, model, prompt string, schema map[string]any) (string, error)
}

type extractionService struct {
	responder responder
	models    []string
	defaults  invoicing.ExtractionDefaults
}

// NewExtractionService returns a service backed by the OpenAI Responses API.
// An empty apiKey yields a service whose Extract always fails with
// ErrAIUnavailable.
func NewExtractionService(apiKey string, models []string, defaults invoicing.ExtractionDefaults) ExtractionService {
	var r responder
	if apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		r = &openAIResponder{client: &client}
	}
	return newExtractionService(r, models, defaults)
}

func newExtractionService(r responder, models []string, defaults invoicing.ExtractionDefaults) *extractionService {
	return &extractionService{responder: r, models: models, defaults: defaults}
}

// extractionSchema describes the object the model must return.
type extractionSchema struct {
	InvoiceDate   string            `json:"invoice_date" jsonschema:"description=Invoice date as YYYY-MM-DD or empty"`
	DueDate       string            `json:"due_date" jsonschema:"description=Due date as YYYY-MM-DD or empty"`
	Currency      string            `json:"currency" jsonschema:"description=ISO currency code such as USD INR EUR GBP"`
	TaxRate       float64           `json:"tax_rate" jsonschema:"description=Tax percentage between 0 and 100"`
	PaymentStatus string            `json:"payment_status" jsonschema:"enum=Paid,enum=Unpaid,enum=Overdue,enum=Draft"`
	Client        extractionClient  `json:"client"`
	Items         []extractionEntry `json:"items"`
}

type extractionClient struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type extractionEntry struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func generateSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(extractionSchema{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You are an invoice data extraction assistant.
Extract invoice details from the user's input and return ONLY a JSON object.

Rules:
- If a value is not mentioned, use an empty string for strings and dates and 0 for numbers.
- Always return the items array, even if it is empty.
- Dates must be in YYYY-MM-DD format.
- Do not include comments or extra fields.

User input:
%s`, text)
}

func (s *extractionService) Extract(ctx context.Context, text string) (*ExtractionResult, error) {
	if s.responder == nil {
		return nil, ErrAIUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	schema, err := generateSchema()
	if err != nil {
		return nil, err
	}

	output, model, err := s.generateWithFallback(ctx, buildPrompt(text), schema)
	if err != nil {
		return nil, err
	}

	data, err := decodeModelOutput(output)
	if err != nil {
		return nil, err
	}

	return &ExtractionResult{
		Model:   model,
		Invoice: invoicing.NormalizeExtraction(data, s.defaults),
	}, nil
}

// generateWithFallback tries each configured model in order and returns the
// first non-empty answer.
func (s *extractionService) generateWithFallback(ctx context.Context, prompt string, schema map[string]any) (string, string, error) {
	lastErr := ErrAllModelsFailed
	for _, model := range s.models {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		output, err := s.responder.Respond(ctx, model, prompt, schema)
		if err == nil && strings.TrimSpace(output) == "" {
			err = errors.New("empty response content")
		}
		if err != nil {
			log.Printf("WARN: model %s failed: %v", model, err)
			lastErr = fmt.Errorf("%w: %s: %v", ErrAllModelsFailed, model, err)
			continue
		}
		return strings.TrimSpace(output), model, nil
	}
	return "", "", lastErr
}

// decodeModelOutput strips markdown fences and decodes the span between the
// first '{' and the last '}'.
func decodeModelOutput(output string) (map[string]any, error) {
	cleaned := strings.NewReplacer("```json", "", "```", "").Replace(output)
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last == -1 || last < first {
		return nil, ErrNoJSONObject
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned[first:last+1]), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIPayload, err)
	}
	return data, nil
}

type openAIResponder struct {
	client *openai.Client
}

func (r *openAIResponder) Respond(ctx context.Context, model, prompt string, schema map[string]any) (string, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "invoice_extraction",
					Strict:      param.NewOpt(true),
					Schema:      schema,
					Description: param.NewOpt("Invoice fields extracted from free text"),
				},
			},
		},
	}

	resp, err := r.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses error: %w", err)
	}
	return resp.OutputText(), nil
}
