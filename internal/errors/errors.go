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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidCredentials indicates Jira authentication failed.
	// Maps to exit code 2.
	ErrInvalidCredentials = errors.New("invalid jira credentials")

	// ErrInvalidConfig indicates the configuration is missing or invalid.
	// Maps to exit code 2.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrFilesystem indicates repeated output write failures, usually a
	// systemic problem such as a full disk or revoked permissions.
	// Maps to exit code 1 and aborts the batch early.
	ErrFilesystem = errors.New("filesystem write failure")

	// ErrTicketsFailed indicates one or more tickets failed in a phase that
	// was not skipped. The batch itself completed. Maps to exit code 1.
	ErrTicketsFailed = errors.New("one or more tickets failed")
)
