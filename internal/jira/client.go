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

package jira

import (
	"context"
	"errors"
	"fmt"
)

// ErrOriginNotAllowed indicates a resource URL pointed outside the Jira
// origin and the configured allow-list.
var ErrOriginNotAllowed = errors.New("resource origin not allowed")

// FetchError describes a failed page or asset fetch. StatusCode is zero for
// transport-level failures such as timeouts.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client defines the interface for interacting with a Jira instance.
// This interface allows for easy mocking in tests.
type Client interface {
	// Authenticate verifies the configured credentials against the Jira
	// instance. It must be called once before any ticket is processed;
	// a failure is fatal to the whole batch.
	Authenticate(ctx context.Context) error

	// FetchIssuePage retrieves the rendered HTML export of the issue with
	// the given key. The returned pageURL is the absolute URL the page was
	// fetched from, used to resolve relative asset references.
	FetchIssuePage(ctx context.Context, key string) (html []byte, pageURL string, err error)

	// FetchResource retrieves an embedded asset by absolute URL, subject to
	// the origin policy. It returns the payload and the Content-Type
	// reported by the server.
	FetchResource(ctx context.Context, rawURL string) (data []byte, contentType string, err error)
}
