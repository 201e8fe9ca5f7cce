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

package assemble

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldDelimiter separates the four filename fields. Splitting a derived
// name on it recovers the field positions, key first.
const FieldDelimiter = " - "

// PlaceholderTicket stands in for an absent service ticket so the field
// position stays recoverable.
const PlaceholderTicket = "No Ticket"

// Per-field length limits keep the whole name under the filesystem's
// path-length limit.
const (
	maxTitleLen  = 150
	maxSprintLen = 30
	maxTicketLen = 30
	maxNameLen   = 240
)

var (
	illegalChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Filename derives a filesystem-safe base name (no extension) from an issue
// key and its extracted details. The key always comes first, which makes
// derived names globally unique even when every other field collides.
// Absent fields are replaced by placeholder tokens, never omitted.
func Filename(key string, d Details) string {
	title := sanitize(d.Title)
	if title == "" {
		title = PlaceholderTitle
	}
	// Some pages repeat the key inside the summary; drop it so the key
	// appears exactly once, in field position one.
	if strings.HasPrefix(title, key) {
		title = leadingSeparators.ReplaceAllString(strings.TrimSpace(title[len(key):]), "")
		if title == "" {
			title = PlaceholderTitle
		}
	}

	sprint := sanitize(d.Sprint)
	if sprint == "" {
		sprint = PlaceholderSprint
	}

	ticket := sanitize(d.ServiceTicket)
	if ticket == "" {
		ticket = PlaceholderTicket
	}

	name := strings.Join([]string{
		key,
		truncate(title, maxTitleLen),
		truncate(sprint, maxSprintLen),
		truncate(ticket, maxTicketLen),
	}, FieldDelimiter)

	return truncate(name, maxNameLen)
}

// KeyFromFilename recovers the issue key from a derived name (first field).
// Used when the HTML phase is skipped and keys must come from existing
// page files.
func KeyFromFilename(name string) string {
	key, _, _ := strings.Cut(name, FieldDelimiter)
	return key
}

// sanitize strips characters illegal in file names and collapses runs of
// whitespace to single spaces.
func sanitize(field string) string {
	field = illegalChars.ReplaceAllString(field, "")
	field = whitespace.ReplaceAllString(field, " ")
	return strings.TrimSpace(field)
}

// truncate shortens s to at most max bytes, marking the cut with "...".
// The cut backs off to a rune boundary so names stay valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
