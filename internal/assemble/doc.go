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

// Package assemble turns a fetched Jira issue page into a self-contained
// document: every stylesheet and image reference is replaced by an inline
// data URI so the output has zero external dependencies. It also extracts
// the issue metadata (title, sprint, service ticket) used to derive the
// output filename.
//
// Assembly degrades gracefully: a single failed asset keeps its original
// reference and is logged, never aborting the page. Already-inlined
// references (data: URIs) pass through untouched, which makes assembling
// an assembled page a no-op.
package assemble
