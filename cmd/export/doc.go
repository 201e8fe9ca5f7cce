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

// Package main implements the sirseer-export command-line interface.
// This tool bulk-exports Jira tickets as self-contained HTML pages and
// PDF documents suitable for offline archival and distribution.
//
// The CLI supports:
//   - Exporting every ticket listed in a plain-text keys file
//   - Concurrent processing with a configurable worker pool
//   - Re-rendering existing pages to PDF with --skip-html
//   - HTML-only export with --skip-pdf
//   - Pluggable PDF engines (wkhtmltopdf, weasyprint)
//   - A CSV failure report for tickets that could not be exported
//
// Usage:
//
//	sirseer-export run [flags]
//
// Example:
//
//	export JIRA_API_TOKEN=your_token
//	sirseer-export run --keys keys.txt --out exports
//
// Exit codes:
//   - 0: Success
//   - 1: General error, including one or more failed tickets
//   - 2: Configuration or credential error
//   - 3: Network error
package main
