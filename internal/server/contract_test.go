package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/userdesk/userdesk/internal/testutil"
)

// loadOpenAPI loads and validates the OpenAPI document.
func loadOpenAPI(t *testing.T) routers.Router {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI document from %s: %v", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		t.Fatalf("Failed to create router from document: %v", err)
	}
	return router
}

// TestContract_ResponsesMatchOpenAPI replays a console session against the
// router and validates every response against the OpenAPI document.
func TestContract_ResponsesMatchOpenAPI(t *testing.T) {
	apiRouter := loadOpenAPI(t)
	ts, _ := newTestAPI(t)
	api := ts.Config.Handler

	steps := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", "", http.StatusOK},
		{"empty list", http.MethodGet, "/api/users", "", http.StatusOK},
		{"create", http.MethodPost, "/api/users", `{"name":"Ana","email":"ana@x.com"}`, http.StatusCreated},
		{"create duplicate", http.MethodPost, "/api/users", `{"name":"Ana","email":"ana@x.com"}`, http.StatusConflict},
		{"create invalid", http.MethodPost, "/api/users", `{"name":"","email":""}`, http.StatusUnprocessableEntity},
		{"create bad json", http.MethodPost, "/api/users", `{`, http.StatusBadRequest},
		{"list", http.MethodGet, "/api/users", "", http.StatusOK},
		{"get", http.MethodGet, "/api/users/1", "", http.StatusOK},
		{"get bad id", http.MethodGet, "/api/users/x", "", http.StatusBadRequest},
		{"update", http.MethodPut, "/api/users/1", `{"id":1,"name":"Ana B","email":"ana@x.com"}`, http.StatusOK},
		{"update mismatch", http.MethodPut, "/api/users/1", `{"id":3,"name":"Ana B","email":"ana@x.com"}`, http.StatusBadRequest},
		{"delete", http.MethodDelete, "/api/users/1", "", http.StatusNoContent},
		{"delete missing", http.MethodDelete, "/api/users/1", "", http.StatusNotFound},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			var body io.Reader
			if step.body != "" {
				body = strings.NewReader(step.body)
			}
			req := httptest.NewRequest(step.method, step.path, body)
			if step.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			if rec.Code != step.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, step.status, rec.Body.String())
			}

			route, params, err := apiRouter.FindRoute(httptest.NewRequest(step.method, step.path, nil))
			if err != nil {
				t.Fatalf("route not documented: %v", err)
			}

			input := &openapi3filter.ResponseValidationInput{
				RequestValidationInput: &openapi3filter.RequestValidationInput{
					Request:    req,
					PathParams: params,
					Route:      route,
				},
				Status:  rec.Code,
				Header:  rec.Header(),
				Body:    io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
				Options: &openapi3filter.Options{IncludeResponseStatus: true},
			}
			if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
				t.Errorf("response does not match OpenAPI document: %v", err)
			}
		})
	}
}
