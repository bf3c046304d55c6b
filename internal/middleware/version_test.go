package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestVersionMiddleware(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	e.Use(vm.APIVersionResolver())
	v1 := vm.VersionRoute(e, "v1")
	v1.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("api_version").(string))
	})
	e.GET("/v9/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Body.String())
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v9/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExtractVersionFromPath(t *testing.T) {
	assert.Equal(t, "v1", extractVersionFromPath("/v1/invoices"))
	assert.Equal(t, "v12", extractVersionFromPath("/v12"))
	assert.Equal(t, "", extractVersionFromPath("/health"))
	assert.Equal(t, "", extractVersionFromPath("/vendors"))
}

func TestVersionHeader_Deprecated(t *testing.T) {
	sunset := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	vm := NewVersionMiddleware()
	vm.supportedVersions["v0"] = APIVersion{Version: "v0", Status: "deprecated", SunsetDate: &sunset, Message: "Use v1"}
	e := echo.New()
	vm.VersionRoute(e, "v0").GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v0/ping", nil))

	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
	assert.Equal(t, "2027-01-01T00:00:00Z", rec.Header().Get("X-API-Sunset"))
	assert.Equal(t, "Use v1", rec.Header().Get("X-API-Message"))
}
