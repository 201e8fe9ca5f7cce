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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirseerhq/sirseer-export/internal/logging"
)

const keysTemplate = `# Add your Jira issue keys here (one per line)
# Lines starting with # are comments and will be ignored
# Example:
# PROJECT-123
`

// ReadKeys reads ticket keys from a plain text file, one per line, ignoring
// comments and blank lines. A missing file is created as a commented
// template and an empty list returned, so first-time users get a file to
// fill in instead of an error.
func ReadKeys(path string) ([]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		if writeErr := os.WriteFile(path, []byte(keysTemplate), 0o644); writeErr != nil {
			return nil, fmt.Errorf("failed to create template keys file %s: %w", path, writeErr)
		}
		logger := logging.NewLogger("batch")
		logger.Info().
			Str("path", path).
			Msg("Created template keys file; add your issue keys and run again")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open keys file %s: %w", path, err)
	}
	defer file.Close()

	var keys []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys file %s: %w", path, err)
	}

	return keys, nil
}
