package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ideamans/sheetboard"
	"github.com/ideamans/sheetboard/internal/config"
	"github.com/ideamans/sheetboard/internal/memsheet"
)

func init() {
	color.NoColor = true
}

// withWorkbook points the configuration at a fresh workbook for the test
func withWorkbook(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_SPREADSHEET_ID", "GOOGLE_SERVICE_ACCOUNT_KEY", "GOOGLE_SERVICE_ACCOUNT_KEY_FILE",
		"GOOGLE_CLIENT_EMAIL", "GOOGLE_PRIVATE_KEY", "GOOGLE_APPLICATION_CREDENTIALS",
		"SHEETBOARD_API_PREFIX", "SHEETBOARD_ADDR", "SHEETBOARD_SERIALIZE_MUTATIONS", "PORT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SHEETBOARD_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), "board.xlsx")
	t.Setenv("SHEETBOARD_WORKBOOK", path)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitAndDoctor(t *testing.T) {
	withWorkbook(t)

	out, err := run(t, "init")
	if err != nil {
		t.Fatalf("init error = %v\n%s", err, out)
	}
	for _, e := range sheetboard.Entities() {
		if !strings.Contains(out, "CREATE  "+e.Sheet) {
			t.Errorf("init output missing CREATE for %s:\n%s", e.Sheet, out)
		}
	}

	out, err = run(t, "init")
	if err != nil {
		t.Fatalf("second init error = %v", err)
	}
	if strings.Contains(out, "CREATE") {
		t.Errorf("second init rewrote headers:\n%s", out)
	}

	out, err = run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor error = %v\n%s", err, out)
	}
	for _, want := range []string{"workbook", "Jobs", "Supporters", "Spotlight", "PostingRequests", "0 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_EmptyWorkbookWarns(t *testing.T) {
	withWorkbook(t)

	out, err := run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor error = %v", err)
	}
	if !strings.Contains(out, "no header row") {
		t.Errorf("doctor output = %s", out)
	}
}

func TestInit_Degraded(t *testing.T) {
	withWorkbook(t)
	t.Setenv("SHEETBOARD_WORKBOOK", "")

	if _, err := run(t, "init"); err == nil || !strings.Contains(err.Error(), "no spreadsheet configured") {
		t.Errorf("init error = %v, want not configured", err)
	}

	out, err := run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor error = %v", err)
	}
	if !strings.Contains(out, "degraded") {
		t.Errorf("doctor output = %s", out)
	}
}

func TestHTTPHandler_Layouts(t *testing.T) {
	backend := memsheet.New()
	backend.AddSheet(0, "Jobs", sheetboard.Jobs.Headers, []string{"job-1", "Dev"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &app{
		config:  config.Default(),
		logger:  logger,
		backend: backend,
		gateway: sheetboard.NewGateway(backend, logger),
	}

	for _, layout := range []string{"server", "functions"} {
		t.Run(layout, func(t *testing.T) {
			handler, err := a.httpHandler(layout)
			if err != nil {
				t.Fatalf("httpHandler() error = %v", err)
			}

			for _, target := range []string{"/api/jobs", "/api/jobs/", "/api/health"} {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				if rec.Code != http.StatusOK {
					t.Errorf("GET %s = %d, want 200", target, rec.Code)
				}
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
			if !strings.Contains(rec.Body.String(), `"id":"job-1"`) {
				t.Errorf("GET /api/jobs body = %s", rec.Body.String())
			}
		})
	}

	if _, err := a.httpHandler("lambda"); err == nil {
		t.Error("httpHandler() expected error for unknown layout")
	}
}
