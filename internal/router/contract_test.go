package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/housetable/vetclinic/internal/testutil"
)

// loadSpec loads and validates the OpenAPI document. Servers are dropped so
// that in-process requests match regardless of host.
func loadSpec(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("failed to resolve project root: %v", err)
	}
	path := filepath.Join(root, "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load OpenAPI document from %s: %v", path, err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	spec.Servers = nil
	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("failed to create router from document: %v", err)
	}

	return spec, router
}

// contractClient issues requests against the router and validates every
// response against the OpenAPI document.
type contractClient struct {
	t       *testing.T
	handler http.Handler
	routes  routers.Router
}

func (c *contractClient) do(method, path string, body any, wantStatus int) json.RawMessage {
	c.t.Helper()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		c.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, rec.Code, rec.Body.String())
	}

	respBody := rec.Body.Bytes()

	route, pathParams, err := c.routes.FindRoute(req)
	if err != nil {
		c.t.Fatalf("%s %s: route not documented: %v", method, path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
		Body:   io.NopCloser(bytes.NewReader(respBody)),
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		c.t.Errorf("%s %s: response does not match document: %v\nbody: %s", method, path, err, respBody)
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Valid(respBody) {
		_ = json.Unmarshal(respBody, &env)
	}
	return env.Data
}

func TestOpenAPIDocumentValid(t *testing.T) {
	spec, _ := loadSpec(t)

	expectedPaths := []string{
		"/api/patients",
		"/api/patients/{id}",
		"/api/appointments",
		"/api/appointments/day",
		"/api/appointments/unpaid",
		"/api/bill/balance",
		"/api/pet/popular",
		"/healthz",
		"/readyz",
	}

	for _, path := range expectedPaths {
		if spec.Paths.Find(path) == nil {
			t.Errorf("expected path %s not found in document", path)
		}
	}
}

func TestContract(t *testing.T) {
	_, routes := loadSpec(t)
	r, _ := newTestRouter(t)
	c := &contractClient{t: t, handler: r, routes: routes}

	c.do(http.MethodGet, "/healthz", nil, http.StatusOK)
	c.do(http.MethodGet, "/readyz", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/health", nil, http.StatusOK)

	c.do(http.MethodPost, "/api/patients", map[string]string{"name": "Rex"}, http.StatusBadRequest)

	var patient struct {
		ID string `json:"id"`
	}
	data := c.do(http.MethodPost, "/api/patients", map[string]string{
		"name":             "Rex",
		"type":             "dog",
		"ownerName":        "Jane Doe",
		"ownerAddress":     "1 Main St",
		"ownerPhoneNumber": "555-0100",
	}, http.StatusCreated)
	if err := json.Unmarshal(data, &patient); err != nil || patient.ID == "" {
		t.Fatalf("failed to read created patient: %v", err)
	}

	c.do(http.MethodGet, "/api/patients", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/patients/"+patient.ID, nil, http.StatusOK)
	c.do(http.MethodGet, "/api/patients/missing", nil, http.StatusNotFound)
	c.do(http.MethodPut, "/api/patients/"+patient.ID, map[string]string{"ownerName": "John Doe"}, http.StatusOK)

	start := time.Now().UTC().Truncate(time.Second)
	var appointment struct {
		ID string `json:"id"`
	}
	data = c.do(http.MethodPost, "/api/appointments", map[string]any{
		"patient":     patient.ID,
		"startTime":   start,
		"endTime":     start.Add(time.Hour),
		"description": "vaccination",
		"feePaidBy":   "UNPAID",
		"amount":      80,
	}, http.StatusCreated)
	if err := json.Unmarshal(data, &appointment); err != nil || appointment.ID == "" {
		t.Fatalf("failed to read created appointment: %v", err)
	}

	c.do(http.MethodGet, "/api/appointments/"+patient.ID, nil, http.StatusOK)
	c.do(http.MethodGet, "/api/appointments/day?day="+start.Format("2006-01-02"), nil, http.StatusOK)
	c.do(http.MethodGet, "/api/appointments/day", nil, http.StatusBadRequest)
	c.do(http.MethodGet, "/api/appointments/unpaid", nil, http.StatusOK)
	c.do(http.MethodPut, "/api/appointments/"+appointment.ID, map[string]any{"feePaidBy": "BTC", "amount": 0.002}, http.StatusOK)

	c.do(http.MethodGet, "/api/bill/"+patient.ID, nil, http.StatusOK)
	c.do(http.MethodGet, "/api/bill/paid?period=week", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/bill/unpaid?period=month", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/bill/balance?period=month", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/bill/paid?period=day", nil, http.StatusBadRequest)
	c.do(http.MethodGet, "/api/pet/popular", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/pet/total?pet=dog", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/pet/total?pet=fish", nil, http.StatusBadRequest)

	c.do(http.MethodDelete, "/api/appointments/"+appointment.ID, nil, http.StatusOK)
	c.do(http.MethodDelete, "/api/patients/"+patient.ID, nil, http.StatusOK)
}
