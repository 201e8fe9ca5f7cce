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

// Package jira provides the authenticated HTTP client used to fetch rendered
// issue pages and their embedded assets from a Jira instance.
//
// The concrete client is built from a chain of http.RoundTripper layers:
// an auth transport that applies basic auth and browser-like headers, and a
// retry transport that retries transient failures with exponential backoff.
//
// Resource fetches are subject to an origin policy: only the configured Jira
// origin and explicitly allow-listed hosts may be contacted. This tool is a
// ticket exporter, not a crawler.
package jira
