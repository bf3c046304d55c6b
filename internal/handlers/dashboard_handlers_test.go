package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"billdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetDashboard(t *testing.T) {
	dashboard := new(MockDashboard)
	h := NewDashboardHandlers(dashboard)
	e := newTestServer()
	e.GET("/v1/dashboard", h.GetDashboard)

	dashboard.On("Summary", mock.Anything, testOwner).Return(&models.DashboardSummary{TotalInvoices: 4, PaidCount: 1, PaidRate: 25}, nil)
	dashboard.On("Summary", mock.Anything, "broken").Return(nil, errors.New("pool closed"))

	rec := doRequest(e, "GET", "/v1/dashboard", "", testOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.TotalInvoices)
	assert.Equal(t, 25.0, summary.PaidRate)

	rec = doRequest(e, "GET", "/v1/dashboard", "", "broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doRequest(e, "GET", "/v1/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
