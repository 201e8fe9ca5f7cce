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

package render

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirseerhq/sirseer-export/internal/logging"
)

// wkhtmltopdfRenderer shells out to the wkhtmltopdf binary.
type wkhtmltopdfRenderer struct {
	binary  string
	timeout time.Duration
}

// Render implements Renderer. Load errors inside the page are ignored so a
// single broken reference cannot sink the whole document; the assembled
// input should be self-contained anyway.
func (r *wkhtmltopdfRenderer) Render(ctx context.Context, htmlPath, pdfPath string) error {
	binary, err := exec.LookPath(r.binary)
	if err != nil {
		return &RenderError{Source: htmlPath, Err: fmt.Errorf("engine binary %q not found: %w", r.binary, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary,
		"--load-error-handling", "ignore",
		"--load-media-error-handling", "ignore",
		"--enable-local-file-access",
		htmlPath, pdfPath,
	)

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		// wkhtmltopdf regularly exits non-zero after writing a usable PDF.
		if checkOutput(pdfPath) == nil {
			logger := logging.NewLogger("render")
			logger.Warn().
				Str("source", htmlPath).
				Err(runErr).
				Msg("wkhtmltopdf reported an error but produced a document")
			return nil
		}
		return &RenderError{Source: htmlPath, Err: fmt.Errorf("%w: %s", runErr, truncateOutput(output))}
	}

	if err := checkOutput(pdfPath); err != nil {
		return &RenderError{Source: htmlPath, Err: err}
	}
	return nil
}

// truncateOutput keeps engine stderr short enough for a log line.
func truncateOutput(output []byte) string {
	const max = 512
	if len(output) > max {
		output = output[:max]
	}
	return string(output)
}
