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
	"fmt"
	"net/http"
	"sync"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
)

// MockClient is a mock implementation of the Client interface for testing.
type MockClient struct {
	mu sync.Mutex

	// Pages maps issue key to the HTML returned by FetchIssuePage.
	Pages map[string]string

	// Resources maps absolute URL to payload returned by FetchResource.
	Resources map[string]MockResource

	// FailKeys lists issue keys whose page fetch fails with a 404.
	FailKeys map[string]bool

	// Behavior flags
	ShouldFailAuth bool

	// BaseURL is used to build page URLs. Defaults to https://jira.test.
	BaseURL string

	// Track calls for verification
	AuthCalls     int
	PageCalls     int
	ResourceCalls int
}

// MockResource is a canned asset payload.
type MockResource struct {
	Data        []byte
	ContentType string
}

// NewMockClient creates a mock client with empty canned data.
func NewMockClient() *MockClient {
	return &MockClient{
		Pages:     make(map[string]string),
		Resources: make(map[string]MockResource),
		FailKeys:  make(map[string]bool),
		BaseURL:   "https://jira.test",
	}
}

// Authenticate implements the Client interface.
func (m *MockClient) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuthCalls++

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", exporterrors.ErrInvalidCredentials)
	}
	return nil
}

// FetchIssuePage implements the Client interface.
func (m *MockClient) FetchIssuePage(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageCalls++

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	default:
	}

	pageURL := fmt.Sprintf("%s/si/jira.issueviews:issue-html/%s/%s.html", m.BaseURL, key, key)
	if m.FailKeys[key] {
		return nil, "", &FetchError{URL: pageURL, StatusCode: http.StatusNotFound}
	}

	page, ok := m.Pages[key]
	if !ok {
		return nil, "", &FetchError{URL: pageURL, StatusCode: http.StatusNotFound}
	}
	return []byte(page), pageURL, nil
}

// FetchResource implements the Client interface.
func (m *MockClient) FetchResource(ctx context.Context, rawURL string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResourceCalls++

	res, ok := m.Resources[rawURL]
	if !ok {
		return nil, "", &FetchError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return res.Data, res.ContentType, nil
}
