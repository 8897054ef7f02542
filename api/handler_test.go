package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ideamans/sheetboard"
	"github.com/ideamans/sheetboard/api"
	"github.com/ideamans/sheetboard/internal/memsheet"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func boardSheet() *memsheet.Backend {
	backend := memsheet.New()
	backend.AddSheet(0, "Jobs",
		sheetboard.Jobs.Headers,
		[]string{"job-1", "Dev", "Acme", "Remote", "full-time", "", "", "", "co-1", "2024-01-01T00:00:00Z", ""},
	)
	backend.AddSheet(310, "Supporters",
		sheetboard.Supporters.Headers,
		[]string{"u-1", "Ann", "ann@example.com", "10", "2024-02-01T00:00:00Z", "true"},
	)
	backend.AddSheet(311, "Spotlight", sheetboard.Spotlight.Headers, []string{"job-1", "1", "true"})
	backend.AddSheet(312, "PostingRequests", sheetboard.PostingRequests.Headers)
	return backend
}

func handlers(backend sheetboard.Backend) []*api.Handler {
	gateway := sheetboard.NewGateway(backend, nil)
	var out []*api.Handler
	for _, e := range sheetboard.Entities() {
		store := sheetboard.NewStore(gateway, e,
			sheetboard.WithClock(func() time.Time { return fixedNow }),
			sheetboard.WithIDGenerator(func() string { return "generated-id" }),
		)
		out = append(out, api.NewHandler(store, nil))
	}
	return out
}

func newServer(backend sheetboard.Backend) http.Handler {
	return api.NewRouter(handlers(backend), api.Options{
		Prefix:   "/api",
		Degraded: backend == nil,
		Now:      func() time.Time { return fixedNow },
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListJobs(t *testing.T) {
	rec := do(t, newServer(boardSheet()), http.MethodGet, "/api/jobs", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	want := []map[string]string{{
		"id": "job-1", "title": "Dev", "company": "Acme", "location": "Remote",
		"type": "full-time", "salary": "", "description": "", "requirements": "",
		"postedBy": "co-1", "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GET /api/jobs mismatch (-want +got):\n%s", diff)
	}

	// fields keep the sheet's column order
	if !strings.HasPrefix(rec.Body.String(), `[{"id":"job-1","title":"Dev","company":"Acme"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateJob(t *testing.T) {
	backend := boardSheet()
	rec := do(t, newServer(backend), http.MethodPost, "/api/jobs", `{"title":"Admin","company":"Acme"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeObject(t, rec)
	if got["id"] != "generated-id" || got["createdAt"] != "2024-03-01T12:30:00Z" || got["location"] != "" {
		t.Errorf("created record = %v", got)
	}

	rows := backend.Rows("Jobs")
	if len(rows) != 3 {
		t.Fatalf("sheet has %d rows, want 3", len(rows))
	}
	want := []string{"generated-id", "Admin", "Acme", "", "", "", "", "", "", "2024-03-01T12:30:00Z", ""}
	if diff := cmp.Diff(want, rows[2]); diff != "" {
		t.Errorf("appended row mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateJob(t *testing.T) {
	backend := boardSheet()
	rec := do(t, newServer(backend), http.MethodPatch, "/api/jobs/job-1", `{"location":"NYC"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got := decodeObject(t, rec)
	if got["location"] != "NYC" || got["title"] != "Dev" {
		t.Errorf("merged record = %v", got)
	}

	want := []string{"job-1", "Dev", "Acme", "NYC", "full-time", "", "", "", "co-1", "2024-01-01T00:00:00Z", ""}
	if diff := cmp.Diff(want, backend.Rows("Jobs")[1]); diff != "" {
		t.Errorf("row 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteJob(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
		wantRows   int
	}{
		{
			name:       "existing",
			target:     "/api/jobs/job-1",
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true}`,
			wantRows:   1,
		},
		{
			name:       "not found",
			target:     "/api/jobs/job-404",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Job not found"}`,
			wantRows:   2,
		},
		{
			name:       "query id",
			target:     "/api/jobs?id=job-1",
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true}`,
			wantRows:   1,
		},
		{
			name:       "whitespace id is looked up as is",
			target:     "/api/jobs?id=%20",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Job not found"}`,
			wantRows:   2,
		},
		{
			name:       "missing query id",
			target:     "/api/jobs",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Job ID is required"}`,
			wantRows:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := boardSheet()
			rec := do(t, newServer(backend), http.MethodDelete, tt.target, "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
			if got := len(backend.Rows("Jobs")); got != tt.wantRows {
				t.Errorf("sheet has %d rows, want %d", got, tt.wantRows)
			}
		})
	}
}

func TestDeleteJob_NotFoundMakesNoMutation(t *testing.T) {
	backend := boardSheet()
	do(t, newServer(backend), http.MethodDelete, "/api/jobs/job-404", "")

	if n := backend.Calls("deleteRows"); n != 0 {
		t.Errorf("deleteRows called %d times, want 0", n)
	}
}

func TestDegradedBackend(t *testing.T) {
	server := newServer(nil)

	rec := do(t, server, http.MethodGet, "/api/supporters", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("GET /api/supporters = %d %s, want 200 []", rec.Code, rec.Body.String())
	}

	rec = do(t, server, http.MethodPost, "/api/supporters", `{"userId":"u-9","name":"Zed"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /api/supporters status = %d, want 200", rec.Code)
	}
	got := decodeObject(t, rec)
	if got["amount"] != "0" || got["isSupporter"] != "true" {
		t.Errorf("created supporter = %v", got)
	}

	rec = do(t, server, http.MethodGet, "/api/health", "")
	want := map[string]interface{}{"status": "ok", "timestamp": "2024-03-01T12:30:00Z", "backend": "degraded"}
	if diff := cmp.Diff(want, decodeObject(t, rec)); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(boardSheet()), http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeObject(t, rec)["backend"]; got != "configured" {
		t.Errorf("backend = %v, want configured", got)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		target      string
		wantMethods string
	}{
		{"/api/jobs", "GET, POST, PATCH, DELETE, OPTIONS"},
		{"/api/jobs/job-1", "GET, POST, PATCH, DELETE, OPTIONS"},
		{"/api/supporters", "GET, POST, DELETE, OPTIONS"},
		{"/api/spotlight", "GET, OPTIONS"},
		{"/api/posting-requests", "GET, OPTIONS"},
		{"/api/health", "GET, OPTIONS"},
	}

	server := newServer(boardSheet())
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, server, http.MethodOptions, tt.target, "")

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
			h := rec.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Allow-Origin = %q", got)
			}
			if got := h.Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("Allow-Methods = %q, want %q", got, tt.wantMethods)
			}
			if got := h.Get("Access-Control-Allow-Headers"); got != "Content-Type" {
				t.Errorf("Allow-Headers = %q", got)
			}
		})
	}

	// error responses carry the headers too
	rec := do(t, server, http.MethodDelete, "/api/jobs/job-404", "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("404 response is missing CORS headers")
	}
}

func TestRouterFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{"preflight on unknown path", http.MethodOptions, "/api/unknown", http.StatusOK, nil},
		{"preflight outside prefix", http.MethodOptions, "/elsewhere", http.StatusOK, nil},
		{"unknown path", http.MethodGet, "/api/unknown", http.StatusNotFound, map[string]interface{}{"error": "Not found"}},
		{"health rejects POST", http.MethodPost, "/api/health", http.StatusMethodNotAllowed, map[string]interface{}{"error": "Method not allowed"}},
		{"health rejects DELETE", http.MethodDelete, "/api/health", http.StatusMethodNotAllowed, map[string]interface{}{"error": "Method not allowed"}},
	}

	backend := boardSheet()
	server := newServer(backend)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, tt.method, tt.target, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Allow-Origin = %q, want *", got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
				t.Errorf("Allow-Headers = %q", got)
			}
			if tt.wantBody == nil {
				if rec.Body.Len() != 0 {
					t.Errorf("body = %q, want empty", rec.Body.String())
				}
				return
			}
			if diff := cmp.Diff(tt.wantBody, decodeObject(t, rec)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if n := backend.TotalCalls(); n != 0 {
		t.Errorf("fallback routes made %d backend calls, want 0", n)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodPut, "/api/jobs"},
		{http.MethodPut, "/api/jobs/job-1"},
		{http.MethodGet, "/api/jobs/job-1"},
		{http.MethodPost, "/api/spotlight"},
		{http.MethodDelete, "/api/spotlight/job-1"},
		{http.MethodPatch, "/api/supporters/u-1"},
		{http.MethodPatch, "/api/posting-requests?id=r-1"},
	}

	server := newServer(boardSheet())
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, server, tt.method, tt.target, `{}`)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Method not allowed"}` {
				t.Errorf("body = %s", got)
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/jobs", `{"title":`},
		{http.MethodPost, "/api/jobs", `["not", "an", "object"]`},
		{http.MethodPatch, "/api/jobs/job-1", `nope`},
		{http.MethodPost, "/api/jobs", `{"title":"a"} trailing garbage`},
		{http.MethodPost, "/api/jobs", `{"title":"a"}{"id":"x"}`},
		{http.MethodPatch, "/api/jobs/job-1", `{"location":"NYC"} 1`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.body, func(t *testing.T) {
			backend := boardSheet()
			rec := do(t, newServer(backend), tt.method, tt.target, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid JSON body"}` {
				t.Errorf("body = %s", got)
			}
			if n := backend.Calls("append") + backend.Calls("update"); n != 0 {
				t.Errorf("backend written %d times, want 0", n)
			}
		})
	}
}

func TestSupporterDeleteByUserID(t *testing.T) {
	backend := boardSheet()
	rec := do(t, newServer(backend), http.MethodDelete, "/api/supporters/u-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := len(backend.Rows("Supporters")); got != 1 {
		t.Errorf("supporters sheet has %d rows, want header only", got)
	}
}

// panicBackend fails every call with a panic
type panicBackend struct{}

func (panicBackend) Values(context.Context, sheetboard.Range) ([][]string, error) {
	panic("boom")
}
func (panicBackend) Append(context.Context, sheetboard.Range, []string) error { panic("boom") }
func (panicBackend) Update(context.Context, sheetboard.Range, []string) error { panic("boom") }
func (panicBackend) DeleteRows(context.Context, int64, int64, int64) error  { panic("boom") }
func (panicBackend) SheetID(context.Context, string) (int64, bool, error)   { panic("boom") }

func TestPanicIsInternalServerError(t *testing.T) {
	for name, server := range map[string]http.Handler{
		"router":   newServer(panicBackend{}),
		"function": api.Function("/api", handlers(panicBackend{})[0]),
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, server, http.MethodGet, "/api/jobs", "")

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Internal server error"}` {
				t.Errorf("body = %s", got)
			}
		})
	}
}

func TestFunctionMatchesRouter(t *testing.T) {
	requests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/jobs", ""},
		{http.MethodPost, "/api/jobs", `{"title":"Admin","company":"Acme"}`},
		{http.MethodPatch, "/api/jobs/job-1", `{"location":"NYC"}`},
		{http.MethodPatch, "/api/jobs?id=job-1", `{"salary":100}`},
		{http.MethodDelete, "/api/jobs/job-404", ""},
		{http.MethodDelete, "/api/jobs?id=", ""},
		{http.MethodOptions, "/api/jobs/job-1", ""},
		{http.MethodPut, "/api/jobs", ""},
		{http.MethodPost, "/api/jobs", `{bad`},
		{http.MethodDelete, "/api/jobs/generated-id", ""},
		{http.MethodGet, "/api/jobs", ""},
	}

	routerBackend, functionBackend := boardSheet(), boardSheet()
	router := newServer(routerBackend)
	function := api.Function("/api", handlers(functionBackend)[0])

	for _, req := range requests {
		a := do(t, router, req.method, req.target, req.body)
		b := do(t, function, req.method, req.target, req.body)

		if a.Code != b.Code || !bytes.Equal(a.Body.Bytes(), b.Body.Bytes()) {
			t.Errorf("%s %s: router %d %s, function %d %s",
				req.method, req.target, a.Code, a.Body.String(), b.Code, b.Body.String())
		}
	}

	if diff := cmp.Diff(routerBackend.Rows("Jobs"), functionBackend.Rows("Jobs")); diff != "" {
		t.Errorf("sheets diverged (-router +function):\n%s", diff)
	}
}
