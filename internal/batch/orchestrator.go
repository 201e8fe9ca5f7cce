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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sirseerhq/sirseer-export/internal/assemble"
	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/jira"
	"github.com/sirseerhq/sirseer-export/internal/logging"
	"github.com/sirseerhq/sirseer-export/internal/render"
)

// Phase names the two skippable top-level steps.
type Phase string

// Export phases.
const (
	PhaseHTML Phase = "html"
	PhasePDF  Phase = "pdf"
)

// Status tracks a ticket through its lifecycle.
type Status string

// Ticket states.
const (
	StatusPending    Status = "pending"
	StatusFetching   Status = "fetching"
	StatusAssembling Status = "assembling"
	StatusWritten    Status = "written"
	StatusRendered   Status = "rendered"
	StatusFailed     Status = "failed"
)

// maxFilesystemFailures is the number of write failures tolerated before
// the batch is treated as systemically broken (full disk, revoked
// permissions) and aborted.
const maxFilesystemFailures = 3

// Record tracks one ticket through one phase.
type Record struct {
	Key      string
	Filename string
	Phase    Phase
	Status   Status
	Err      error
}

// renderJob is one page queued for PDF conversion.
type renderJob struct {
	key      string
	htmlPath string
	pdfPath  string
}

// Options configures a batch run.
type Options struct {
	Workers          int
	SkipHTML         bool
	SkipPDF          bool
	KeepInstructions bool

	// PagesDir receives the assembled HTML pages; DocsDir the PDFs.
	PagesDir string
	DocsDir  string

	// ReportPath is where the failure report is written.
	ReportPath string
}

// Summary aggregates the outcome of a run.
type Summary struct {
	HTMLSucceeded int
	HTMLFailed    int
	PDFSucceeded  int
	PDFFailed     int
	Failures      []FailureRow
}

// Failed reports whether any ticket failed in a phase that ran.
func (s *Summary) Failed() bool {
	return s.HTMLFailed > 0 || s.PDFFailed > 0
}

// Orchestrator runs the export batch.
type Orchestrator struct {
	client    jira.Client
	assembler *assemble.Assembler
	renderer  render.Renderer
	opts      Options
	log       zerolog.Logger

	mu         sync.Mutex
	fsFailures int
	abort      chan struct{}
	abortOnce  sync.Once
}

// New creates an Orchestrator. client and assembler may be nil when the
// HTML phase is skipped; renderer may be nil when the PDF phase is skipped.
func New(client jira.Client, assembler *assemble.Assembler, renderer render.Renderer, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		client:    client,
		assembler: assembler,
		renderer:  renderer,
		opts:      opts,
		abort:     make(chan struct{}),
		log:       logging.NewLogger("batch"),
	}
}

// Run executes the configured phases over the given ticket keys and writes
// the failure report. Ticket-level failures land in the Summary, never in
// the returned error; the error is reserved for batch-fatal conditions
// (unusable output directory, systemic write failures, cancellation before
// any work could be dispatched).
func (o *Orchestrator) Run(ctx context.Context, keys []string) (*Summary, error) {
	if err := os.MkdirAll(o.opts.PagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages directory: %w", exporterrors.ErrFilesystem)
	}
	if !o.opts.SkipPDF {
		if err := os.MkdirAll(o.opts.DocsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create documents directory: %w", exporterrors.ErrFilesystem)
		}
	}

	summary := &Summary{}
	var jobs []renderJob

	if !o.opts.SkipHTML {
		for _, rec := range o.runHTMLPhase(ctx, keys) {
			if rec.Status == StatusFailed {
				summary.HTMLFailed++
				summary.Failures = append(summary.Failures, FailureRow{
					Key:     rec.Key,
					Phase:   string(rec.Phase),
					Message: rec.Err.Error(),
				})
				continue
			}
			summary.HTMLSucceeded++
			jobs = append(jobs, renderJob{
				key:      rec.Key,
				htmlPath: filepath.Join(o.opts.PagesDir, rec.Filename+".html"),
				pdfPath:  filepath.Join(o.opts.DocsDir, rec.Filename+".pdf"),
			})
		}
	}

	if !o.opts.SkipPDF {
		if o.opts.SkipHTML {
			var err error
			jobs, err = o.jobsFromExistingPages()
			if err != nil {
				return summary, err
			}
		}
		for _, rec := range o.runPDFPhase(ctx, jobs) {
			if rec.Status == StatusFailed {
				summary.PDFFailed++
				summary.Failures = append(summary.Failures, FailureRow{
					Key:     rec.Key,
					Phase:   string(rec.Phase),
					Message: rec.Err.Error(),
				})
				continue
			}
			summary.PDFSucceeded++
		}
	}

	// The report is written exactly once, at the end, truncating the
	// previous run's report.
	if err := WriteReport(o.opts.ReportPath, summary.Failures); err != nil {
		return summary, err
	}

	if o.aborted() {
		return summary, fmt.Errorf("aborting after %d write failures: %w",
			maxFilesystemFailures, exporterrors.ErrFilesystem)
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// runHTMLPhase distributes keys across the worker pool. Each worker
// processes one ticket fully before taking the next.
func (o *Orchestrator) runHTMLPhase(ctx context.Context, keys []string) []*Record {
	work := make(chan string)
	results := make(chan *Record)

	var wg sync.WaitGroup
	for i := 0; i < o.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range work {
				// Detached context: an interrupt stops dispatch, not the
				// ticket already being written.
				results <- o.exportTicket(context.WithoutCancel(ctx), key)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, key := range keys {
			select {
			case work <- key:
			case <-ctx.Done():
				return
			case <-o.abort:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]*Record, 0, len(keys))
	for rec := range results {
		records = append(records, rec)
	}
	return records
}

// exportTicket runs the Fetch → Assemble → Write pipeline for one key.
func (o *Orchestrator) exportTicket(ctx context.Context, key string) *Record {
	rec := &Record{Key: key, Phase: PhaseHTML, Status: StatusFetching}

	o.log.Info().Str("key", key).Msg("Fetching issue page")
	raw, pageURL, err := o.client.FetchIssuePage(ctx, key)
	if err != nil {
		return o.fail(rec, fmt.Errorf("fetch issue page: %w", err))
	}

	details := assemble.ExtractDetails(raw, key)
	rec.Filename = assemble.Filename(key, details)
	rec.Status = StatusAssembling

	page, err := o.assembler.Assemble(ctx, raw, pageURL, assemble.Options{
		KeepInstructions: o.opts.KeepInstructions,
	})
	if err != nil {
		return o.fail(rec, fmt.Errorf("assemble page: %w", err))
	}

	htmlPath := filepath.Join(o.opts.PagesDir, rec.Filename+".html")
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		o.noteFilesystemFailure()
		return o.fail(rec, fmt.Errorf("write page: %w", err))
	}

	rec.Status = StatusWritten
	o.log.Info().Str("key", key).Str("path", htmlPath).Msg("Page written")
	return rec
}

// runPDFPhase converts written pages to documents on a second worker pool.
func (o *Orchestrator) runPDFPhase(ctx context.Context, jobs []renderJob) []*Record {
	work := make(chan renderJob)
	results := make(chan *Record)

	var wg sync.WaitGroup
	for i := 0; i < o.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				results <- o.renderTicket(context.WithoutCancel(ctx), job)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, job := range jobs {
			select {
			case work <- job:
			case <-ctx.Done():
				return
			case <-o.abort:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]*Record, 0, len(jobs))
	for rec := range results {
		records = append(records, rec)
	}
	return records
}

// renderTicket converts one page. Render failures leave the HTML in place.
func (o *Orchestrator) renderTicket(ctx context.Context, job renderJob) *Record {
	rec := &Record{Key: job.key, Phase: PhasePDF, Status: StatusPending}

	o.log.Info().Str("key", job.key).Str("source", job.htmlPath).Msg("Rendering document")
	if err := o.renderer.Render(ctx, job.htmlPath, job.pdfPath); err != nil {
		return o.fail(rec, err)
	}

	rec.Status = StatusRendered
	o.log.Info().Str("key", job.key).Str("path", job.pdfPath).Msg("Document written")
	return rec
}

// jobsFromExistingPages builds the PDF work list by scanning the pages
// directory, used when the HTML phase was skipped. The ticket key is
// recovered from the first filename field.
func (o *Orchestrator) jobsFromExistingPages() ([]renderJob, error) {
	matches, err := filepath.Glob(filepath.Join(o.opts.PagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("scan pages directory: %w", err)
	}
	if len(matches) == 0 {
		o.log.Warn().Str("dir", o.opts.PagesDir).Msg("No pages found to convert")
	}

	jobs := make([]renderJob, 0, len(matches))
	for _, htmlPath := range matches {
		name := strings.TrimSuffix(filepath.Base(htmlPath), ".html")
		jobs = append(jobs, renderJob{
			key:      assemble.KeyFromFilename(name),
			htmlPath: htmlPath,
			pdfPath:  filepath.Join(o.opts.DocsDir, name+".pdf"),
		})
	}
	return jobs, nil
}

// fail finalizes a record and logs the ticket-level failure.
func (o *Orchestrator) fail(rec *Record, err error) *Record {
	rec.Status = StatusFailed
	rec.Err = err
	o.log.Error().
		Str("key", rec.Key).
		Str("phase", string(rec.Phase)).
		Err(err).
		Msg("Ticket failed")
	return rec
}

// noteFilesystemFailure counts write failures and trips the abort switch
// once they look systemic.
func (o *Orchestrator) noteFilesystemFailure() {
	o.mu.Lock()
	o.fsFailures++
	tripped := o.fsFailures >= maxFilesystemFailures
	o.mu.Unlock()

	if tripped {
		o.abortOnce.Do(func() {
			o.log.Error().
				Int("failures", maxFilesystemFailures).
				Msg("Repeated write failures, stopping dispatch")
			close(o.abort)
		})
	}
}

// aborted reports whether the filesystem abort switch tripped.
func (o *Orchestrator) aborted() bool {
	select {
	case <-o.abort:
		return true
	default:
		return false
	}
}
