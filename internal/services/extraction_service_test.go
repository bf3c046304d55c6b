package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"billdesk/internal/invoicing"
	"billdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testModels = []string{"gpt-4o-mini", "gpt-4o"}

func TestExtract_NoAPIKey(t *testing.T) {
	svc := NewExtractionService("", testModels, invoicing.ExtractionDefaults{})

	_, err := svc.Extract(context.Background(), "bill Globex 2 hours")

	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestExtract_EmptyPrompt(t *testing.T) {
	responder := new(MockResponder)
	svc := newExtractionService(responder, testModels, invoicing.ExtractionDefaults{})

	_, err := svc.Extract(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyPrompt)
	responder.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_FallsBackToNextModel(t *testing.T) {
	ctx := context.Background()
	responder := new(MockResponder)
	output := "Here you go:\n```json\n" + `{
		"invoice_date": "2026-03-01",
		"due_date": "",
		"currency": "usd",
		"tax_rate": "10",
		"payment_status": "Unpaid",
		"client": {"name": "Globex", "email": "ap@globex.test", "phone": "", "address": ""},
		"items": [{"description": "Design", "quantity": 2, "unit_price": 50}, {"description": "Support"}]
	}` + "\n```"
	responder.On("Respond", ctx, "gpt-4o-mini", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))
	responder.On("Respond", ctx, "gpt-4o", mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "bill Globex for design")
	}), mock.Anything).Return(output, nil)

	svc := newExtractionService(responder, testModels, invoicing.ExtractionDefaults{Currency: "INR", TaxPercent: 18})
	result, err := svc.Extract(ctx, "bill Globex for design")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", result.Model)
	inv := result.Invoice
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, 10.0, inv.TaxPercent)
	assert.Equal(t, models.InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, "Globex", inv.Client.Name)
	require.NotNil(t, inv.IssueDate)
	assert.Nil(t, inv.DueDate)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, 1.0, inv.Items[1].Quantity)
	assert.InDelta(t, 100.0, inv.Subtotal, 1e-9)
	assert.InDelta(t, 110.0, inv.Total, 1e-9)
	responder.AssertExpectations(t)
}

func TestExtract_AllModelsFail(t *testing.T) {
	ctx := context.Background()
	responder := new(MockResponder)
	responder.On("Respond", ctx, "gpt-4o-mini", mock.Anything, mock.Anything).Return("   ", nil)
	responder.On("Respond", ctx, "gpt-4o", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	svc := newExtractionService(responder, testModels, invoicing.ExtractionDefaults{})
	_, err := svc.Extract(ctx, "anything")

	assert.ErrorIs(t, err, ErrAllModelsFailed)
	assert.Contains(t, err.Error(), "gpt-4o")
}

func TestExtract_NoJSONObject(t *testing.T) {
	ctx := context.Background()
	responder := new(MockResponder)
	responder.On("Respond", ctx, "gpt-4o-mini", mock.Anything, mock.Anything).Return("I could not find an invoice.", nil)

	svc := newExtractionService(responder, testModels, invoicing.ExtractionDefaults{})
	_, err := svc.Extract(ctx, "hello")

	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestDecodeModelOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr error
		wantKey string
	}{
		{"plain object", `{"currency":"INR"}`, nil, "currency"},
		{"fenced", "```json\n{\"items\":[]}\n```", nil, "items"},
		{"surrounding prose", `Result: {"tax_rate": 5} done`, nil, "tax_rate"},
		{"no braces", "nothing here", ErrNoJSONObject, ""},
		{"reversed braces", "} oops {", ErrNoJSONObject, ""},
		{"broken json", `{"currency": }`, ErrInvalidAIPayload, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decodeModelOutput(tt.output)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, data, tt.wantKey)
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema, err := generateSchema()

	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"invoice_date", "due_date", "currency", "tax_rate", "payment_status", "client", "items"} {
		assert.Contains(t, props, key)
	}
}
