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
	"os"
	"path/filepath"
	"testing"
)

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	return rows
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_failures.csv")

	rows := []FailureRow{
		{Key: "PROJ-1", Phase: "html", Message: "fetch issue page: status 404"},
		{Key: "PROJ-2", Phase: "pdf", Message: "render failed, comma, included"},
	}
	if err := WriteReport(path, rows); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	got := readReport(t, path)
	if len(got) != 3 {
		t.Fatalf("report has %d rows, want header + 2", len(got))
	}
	for i, col := range reportHeader {
		if got[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, got[0][i], col)
		}
	}
	if got[1][0] != "PROJ-1" || got[1][1] != "html" {
		t.Errorf("row 1 = %v", got[1])
	}
	if got[2][2] != "render failed, comma, included" {
		t.Errorf("commas not preserved: %v", got[2])
	}
}

func TestWriteReportTruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_failures.csv")

	first := []FailureRow{
		{Key: "PROJ-1", Phase: "html", Message: "status 404"},
		{Key: "PROJ-2", Phase: "html", Message: "status 404"},
	}
	if err := WriteReport(path, first); err != nil {
		t.Fatal(err)
	}

	// A clean run leaves only the header behind.
	if err := WriteReport(path, nil); err != nil {
		t.Fatal(err)
	}
	got := readReport(t, path)
	if len(got) != 1 {
		t.Errorf("report has %d rows after clean run, want header only", len(got))
	}
}
