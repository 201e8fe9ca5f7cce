// Copyright 2026 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirseerhq/sirseer-export/internal/assemble"
	"github.com/sirseerhq/sirseer-export/internal/cache"
	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/jira"
	"github.com/sirseerhq/sirseer-export/internal/render"
)

// fakeRenderer records calls and writes a tiny valid-looking PDF, failing
// for any source whose base name is in fail.
type fakeRenderer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRenderer) Render(ctx context.Context, htmlPath, pdfPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, htmlPath)
	shouldFail := f.fail[filepath.Base(htmlPath)]
	f.mu.Unlock()

	if shouldFail {
		return &render.RenderError{Source: htmlPath, Err: errors.New("engine exploded")}
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644)
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func issuePage(key, title string) string {
	return fmt.Sprintf(
		`<html><head><title>[%s] %s - Jira</title></head><body><h1>%s</h1></body></html>`,
		key, title, title)
}

// testHarness wires a mock client, shared cache and assembler into an
// Orchestrator rooted in a temp directory.
type testHarness struct {
	client   *jira.MockClient
	renderer *fakeRenderer
	opts     Options
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	root := t.TempDir()
	return &testHarness{
		client:   jira.NewMockClient(),
		renderer: &fakeRenderer{fail: make(map[string]bool)},
		opts: Options{
			Workers:    4,
			PagesDir:   filepath.Join(root, "pages"),
			DocsDir:    filepath.Join(root, "documents"),
			ReportPath: filepath.Join(root, "export_failures.csv"),
		},
	}
}

func (h *testHarness) orchestrator() *Orchestrator {
	assembler := assemble.New(h.client, cache.New())
	return New(h.client, assembler, h.renderer, h.opts)
}

func countFiles(t *testing.T, dir, pattern string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatal(err)
	}
	return len(matches)
}

func TestRunIsolatesTicketFailures(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipPDF = true

	var keys []string
	for i := 1; i <= 10; i++ {
		key := fmt.Sprintf("PROJ-%d", i)
		keys = append(keys, key)
		h.client.Pages[key] = issuePage(key, fmt.Sprintf("Ticket number %d", i))
	}
	h.client.FailKeys["PROJ-3"] = true
	h.client.FailKeys["PROJ-7"] = true

	summary, err := h.orchestrator().Run(context.Background(), keys)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.HTMLSucceeded != 8 {
		t.Errorf("HTMLSucceeded = %d, want 8", summary.HTMLSucceeded)
	}
	if summary.HTMLFailed != 2 {
		t.Errorf("HTMLFailed = %d, want 2", summary.HTMLFailed)
	}
	if !summary.Failed() {
		t.Error("Failed() = false, want true")
	}
	if got := countFiles(t, h.opts.PagesDir, "*.html"); got != 8 {
		t.Errorf("pages written = %d, want 8", got)
	}

	rows := readReport(t, h.opts.ReportPath)
	if len(rows) != 3 {
		t.Fatalf("report rows = %d, want header + 2", len(rows))
	}
	failed := map[string]bool{rows[1][0]: true, rows[2][0]: true}
	if !failed["PROJ-3"] || !failed["PROJ-7"] {
		t.Errorf("report names %v, want PROJ-3 and PROJ-7", failed)
	}
	for _, row := range rows[1:] {
		if row[1] != string(PhaseHTML) {
			t.Errorf("phase = %q, want %q", row[1], PhaseHTML)
		}
	}
}

func TestRunRendersDocuments(t *testing.T) {
	h := newHarness(t)
	keys := []string{"PROJ-1", "PROJ-2", "PROJ-3"}
	for _, key := range keys {
		h.client.Pages[key] = issuePage(key, "Render me")
	}

	summary, err := h.orchestrator().Run(context.Background(), keys)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.PDFSucceeded != 3 || summary.PDFFailed != 0 {
		t.Errorf("PDF counts = %d/%d, want 3/0", summary.PDFSucceeded, summary.PDFFailed)
	}
	if got := countFiles(t, h.opts.DocsDir, "*.pdf"); got != 3 {
		t.Errorf("documents written = %d, want 3", got)
	}
	if got := h.renderer.callCount(); got != 3 {
		t.Errorf("renderer called %d times, want 3", got)
	}
}

func TestRunRenderFailureKeepsPage(t *testing.T) {
	h := newHarness(t)
	h.client.Pages["PROJ-1"] = issuePage("PROJ-1", "Sturdy")
	h.client.Pages["PROJ-2"] = issuePage("PROJ-2", "Fragile")

	fragile := assemble.Filename("PROJ-2",
		assemble.ExtractDetails([]byte(h.client.Pages["PROJ-2"]), "PROJ-2"))
	h.renderer.fail[fragile+".html"] = true

	summary, err := h.orchestrator().Run(context.Background(), []string{"PROJ-1", "PROJ-2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.PDFSucceeded != 1 || summary.PDFFailed != 1 {
		t.Errorf("PDF counts = %d/%d, want 1/1", summary.PDFSucceeded, summary.PDFFailed)
	}
	// The failed ticket's page survives for a retry with skip-html-phase.
	if _, err := os.Stat(filepath.Join(h.opts.PagesDir, fragile+".html")); err != nil {
		t.Errorf("page for failed render missing: %v", err)
	}

	rows := readReport(t, h.opts.ReportPath)
	if len(rows) != 2 {
		t.Fatalf("report rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "PROJ-2" || rows[1][1] != string(PhasePDF) {
		t.Errorf("report row = %v, want PROJ-2/pdf", rows[1])
	}
}

func TestRunSkipHTMLUsesExistingPages(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipHTML = true

	if err := os.MkdirAll(h.opts.PagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pages := map[string]string{
		"PROJ-5 - Old export - Sprint 9 - No Ticket":  "<html><body>five</body></html>",
		"PROJ-6 - Other export - Sprint 9 - No Ticket": "<html><body>six</body></html>",
	}
	for name, body := range pages {
		path := filepath.Join(h.opts.PagesDir, name+".html")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h.renderer.fail["PROJ-6 - Other export - Sprint 9 - No Ticket.html"] = true

	summary, err := h.orchestrator().Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.PDFSucceeded != 1 || summary.PDFFailed != 1 {
		t.Errorf("PDF counts = %d/%d, want 1/1", summary.PDFSucceeded, summary.PDFFailed)
	}
	if h.client.PageCalls != 0 {
		t.Errorf("PageCalls = %d, want 0 when reusing pages", h.client.PageCalls)
	}

	// The failing page's key is recovered from the filename for the report.
	rows := readReport(t, h.opts.ReportPath)
	if len(rows) != 2 {
		t.Fatalf("report rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "PROJ-6" {
		t.Errorf("report key = %q, want PROJ-6", rows[1][0])
	}
}

func TestRunSkipHTMLWithNoPages(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipHTML = true

	summary, err := h.orchestrator().Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Failed() {
		t.Errorf("summary reports failures with no pages: %+v", summary)
	}
	if got := h.renderer.callCount(); got != 0 {
		t.Errorf("renderer called %d times, want 0", got)
	}
}

func TestRunAbortsAfterRepeatedWriteFailures(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipPDF = true
	h.opts.Workers = 1

	var keys []string
	for i := 1; i <= 6; i++ {
		key := fmt.Sprintf("PROJ-%d", i)
		keys = append(keys, key)
		h.client.Pages[key] = issuePage(key, "Doomed ticket")
	}

	// A directory squatting on the target path makes the page write fail.
	if err := os.MkdirAll(h.opts.PagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"PROJ-1", "PROJ-2", "PROJ-3"} {
		name := assemble.Filename(key,
			assemble.ExtractDetails([]byte(h.client.Pages[key]), key))
		if err := os.MkdirAll(filepath.Join(h.opts.PagesDir, name+".html"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := h.orchestrator().Run(context.Background(), keys)
	if !errors.Is(err, exporterrors.ErrFilesystem) {
		t.Fatalf("Run() error = %v, want ErrFilesystem", err)
	}
	if summary.HTMLFailed != 3 {
		t.Errorf("HTMLFailed = %d, want 3", summary.HTMLFailed)
	}
	// Dispatch stops once the abort trips; with one worker at most one
	// later key can already be in flight.
	if summary.HTMLSucceeded > 1 {
		t.Errorf("HTMLSucceeded = %d, want at most 1 after abort", summary.HTMLSucceeded)
	}
}

func TestRunCancelledContextStopsDispatch(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipPDF = true
	h.client.Pages["PROJ-1"] = issuePage("PROJ-1", "Never started")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.orchestrator().Run(ctx, []string{"PROJ-1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary.HTMLSucceeded+summary.HTMLFailed > 1 {
		t.Errorf("processed %d tickets after cancellation",
			summary.HTMLSucceeded+summary.HTMLFailed)
	}
}

func TestRunUnusableOutputDirectory(t *testing.T) {
	h := newHarness(t)
	h.opts.SkipPDF = true

	// A file where the pages directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.opts.PagesDir = filepath.Join(blocker, "pages")

	_, err := h.orchestrator().Run(context.Background(), []string{"PROJ-1"})
	if !errors.Is(err, exporterrors.ErrFilesystem) {
		t.Fatalf("Run() error = %v, want ErrFilesystem", err)
	}
}
