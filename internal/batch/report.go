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
	"encoding/csv"
	"fmt"
	"os"
)

// FailureRow is one line of the failure report.
type FailureRow struct {
	Key     string
	Phase   string
	Message string
}

// reportHeader names the failure report columns.
var reportHeader = []string{"Issue Key", "Phase", "Error"}

// WriteReport writes the failure report as CSV, truncating any report from
// a previous run. It is written exactly once, at the end of the run, so a
// crash mid-run loses only the report and never the already-written pages.
func WriteReport(path string, rows []FailureRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create failure report %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Key, row.Phase, row.Message}); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", row.Key, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush failure report: %w", err)
	}

	return file.Close()
}
