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

// Package render converts assembled pages to PDF documents by delegating to
// an external conversion engine. Two interchangeable engines are supported;
// both accept a self-contained HTML file and produce a paginated PDF.
//
// Engine failures are per-document: a missing binary, a conversion timeout,
// or an empty output PDF fail that document only, never the batch.
package render

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Engine identifies an external PDF conversion engine.
type Engine string

// Supported engines.
const (
	EngineWkhtmltopdf Engine = "wkhtmltopdf"
	EngineWeasyPrint  Engine = "weasyprint"
)

// ParseEngine validates an engine name from configuration or flags.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case EngineWkhtmltopdf:
		return EngineWkhtmltopdf, nil
	case EngineWeasyPrint:
		return EngineWeasyPrint, nil
	default:
		return "", fmt.Errorf("unknown render engine %q (supported: %s, %s)",
			name, EngineWkhtmltopdf, EngineWeasyPrint)
	}
}

// RenderError describes a failed conversion for one document.
type RenderError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Source, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer converts a single assembled page into a PDF document.
type Renderer interface {
	// Render reads the page at htmlPath and writes the document to pdfPath.
	// Failures are reported as *RenderError.
	Render(ctx context.Context, htmlPath, pdfPath string) error
}

// NewRenderer returns the Renderer for the chosen engine. The engine binary
// is looked up at render time, not here: a missing binary is a per-document
// failure, not a startup error.
func NewRenderer(engine Engine, timeout time.Duration) (Renderer, error) {
	switch engine {
	case EngineWkhtmltopdf:
		return &wkhtmltopdfRenderer{binary: "wkhtmltopdf", timeout: timeout}, nil
	case EngineWeasyPrint:
		return &weasyprintRenderer{binary: "weasyprint", timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", engine)
	}
}

// checkOutput verifies the engine actually produced a document. Engines
// sometimes exit zero after writing nothing, and wkhtmltopdf exits non-zero
// after writing a perfectly usable PDF, so the file is the source of truth.
func checkOutput(pdfPath string) error {
	info, err := os.Stat(pdfPath)
	if err != nil {
		return fmt.Errorf("no output produced: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output is empty")
	}
	return nil
}
