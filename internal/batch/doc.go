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

// Package batch orchestrates the export run: it reads the ticket key list,
// distributes keys across a bounded worker pool, tracks per-ticket
// success/failure through the HTML and PDF phases, and writes the failure
// report at the end of the run.
//
// Failure isolation rules:
//   - an asset failing inside a page degrades that page, not the ticket
//   - a ticket failing a phase never aborts the batch
//   - a ticket failing the HTML phase is excluded from the PDF phase
//   - only credential failures and repeated filesystem write failures are
//     batch-fatal
//
// An interrupt stops the dispatcher from handing out new keys; workers
// finish their current ticket on a detached context so no output file is
// left truncated.
package batch
