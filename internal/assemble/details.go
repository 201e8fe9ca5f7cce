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
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Placeholder tokens substituted for fields that cannot be extracted.
const (
	PlaceholderTitle  = "Jira Issue"
	PlaceholderSprint = "No Sprint"
)

// Details holds the issue metadata extracted from a rendered page. Fields
// that could not be found carry their placeholder token; ServiceTicket is
// empty when the issue has none.
type Details struct {
	Title         string
	Sprint        string
	ServiceTicket string
}

// sprintPatterns cover the markup variants Jira uses to render the sprint
// field across versions and view modes.
var sprintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)Sprint:</span>.*?<span[^>]*>(.*?)<`),
	regexp.MustCompile(`(?s)Sprint:</span>.*?<span[^>]*>(.*?)</span>`),
	regexp.MustCompile(`(?s)Sprint</span>:.*?<span[^>]*>(.*?)<`),
	regexp.MustCompile(`(?s)Sprint</span>.*?<span[^>]*>(.*?)</span>`),
	regexp.MustCompile(`(?s)Sprint:.*?<span[^>]*>(.*?)<`),
	regexp.MustCompile(`(?s)Sprint:.*?<td[^>]*>(.*?)<`),
}

var leadingSeparators = regexp.MustCompile(`^[\s\-:]+`)

// ExtractDetails pulls title, sprint, and service ticket out of a rendered
// issue page. Extraction is best-effort: every field falls back to its
// placeholder so the filename resolver always has four fields to work with.
func ExtractDetails(rawHTML []byte, key string) Details {
	details := Details{
		Title:  PlaceholderTitle,
		Sprint: PlaceholderSprint,
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return details
	}

	if title := extractTitle(doc, key); title != "" {
		details.Title = title
	}
	if sprint := extractSprint(rawHTML); sprint != "" {
		details.Sprint = sprint
	}
	details.ServiceTicket = extractServiceTicket(doc)

	return details
}

// extractTitle tries the <title> tag first (what the browser shows), then
// the summary field, then any header that mentions the key.
func extractTitle(doc *goquery.Document, key string) string {
	titleText := strings.TrimSpace(doc.Find("title").First().Text())
	if titleText != "" {
		bracket := regexp.MustCompile(`\[\s*#?` + regexp.QuoteMeta(key) + `\s*\]\s*(.*?)(?:\s*-\s*Jira)?$`)
		if m := bracket.FindStringSubmatch(titleText); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return title
			}
		}
		if strings.Contains(titleText, key) {
			if _, after, found := strings.Cut(titleText, key); found {
				title := strings.TrimSpace(after)
				title = strings.TrimSpace(strings.TrimSuffix(title, "- Jira"))
				title = leadingSeparators.ReplaceAllString(title, "")
				if title != "" {
					return title
				}
			}
		}
	}

	if summary := strings.TrimSpace(doc.Find("#summary-val").First().Text()); summary != "" {
		return summary
	}

	var fromHeader string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, key) || len(text) <= len(key) {
			return true
		}
		if _, after, found := strings.Cut(text, key); found {
			title := leadingSeparators.ReplaceAllString(strings.TrimSpace(after), "")
			if title != "" {
				fromHeader = title
				return false
			}
		}
		return true
	})
	return fromHeader
}

// extractSprint matches the raw markup because the sprint value sits in
// layout-dependent positions goquery selectors cannot pin down reliably.
func extractSprint(rawHTML []byte) string {
	for _, pattern := range sprintPatterns {
		if m := pattern.FindSubmatch(rawHTML); m != nil {
			value := strings.TrimSpace(string(m[1]))
			if value != "" && !strings.EqualFold(value, "none") && value != "-" {
				return value
			}
		}
	}
	return ""
}

// extractServiceTicket scans field tables for a "Service Ticket #" row with
// a numeric value.
func extractServiceTicket(doc *goquery.Document) string {
	var ticket string
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		if !strings.HasPrefix(label, "Service Ticket #") {
			return true
		}
		value := strings.TrimSpace(cells.Eq(1).Text())
		if value != "" && isDigits(value) {
			ticket = value
			return false
		}
		return true
	})
	return ticket
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
