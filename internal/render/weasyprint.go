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
)

// weasyprintRenderer shells out to the weasyprint binary.
type weasyprintRenderer struct {
	binary  string
	timeout time.Duration
}

// Render implements Renderer.
func (r *weasyprintRenderer) Render(ctx context.Context, htmlPath, pdfPath string) error {
	binary, err := exec.LookPath(r.binary)
	if err != nil {
		return &RenderError{Source: htmlPath, Err: fmt.Errorf("engine binary %q not found: %w", r.binary, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, htmlPath, pdfPath)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return &RenderError{Source: htmlPath, Err: fmt.Errorf("%w: %s", runErr, truncateOutput(output))}
	}

	if err := checkOutput(pdfPath); err != nil {
		return &RenderError{Source: htmlPath, Err: err}
	}
	return nil
}
