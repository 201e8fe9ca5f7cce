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
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/logging"
)

// Options configures the HTTP client.
type Options struct {
	// BaseURL is the Jira instance root, e.g. https://jira.example.com.
	BaseURL string

	// Username and Token are the basic-auth credentials.
	Username string
	Token    string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int

	// AllowedHosts lists additional hosts embedded assets may be fetched
	// from besides the Jira origin itself.
	AllowedHosts []string
}

// httpClient is the concrete Client backed by net/http.
type httpClient struct {
	base    *url.URL
	httpc   *http.Client
	allowed map[string]struct{}
}

// NewClient creates a Client for the given Jira instance.
func NewClient(opts Options) (Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid jira base URL %q: %w", opts.BaseURL, exporterrors.ErrInvalidConfig)
	}

	allowed := make(map[string]struct{}, len(opts.AllowedHosts))
	for _, host := range opts.AllowedHosts {
		allowed[strings.ToLower(host)] = struct{}{}
	}

	transport := &retryTransport{
		base: &authTransport{
			username: opts.Username,
			token:    opts.Token,
			base:     http.DefaultTransport,
		},
		maxRetries: opts.MaxRetries,
		log:        logging.NewLogger("fetch"),
	}

	return &httpClient{
		base: base,
		httpc: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		allowed: allowed,
	}, nil
}

// Authenticate implements Client. It probes the "myself" endpoint, which
// answers for any authenticated user.
func (c *httpClient) Authenticate(ctx context.Context) error {
	probeURL := c.base.String() + "/rest/api/2/myself"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("build auth probe: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("auth probe failed: %w", exporterrors.ErrNetworkFailure)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("auth probe returned status %d: %w", resp.StatusCode, exporterrors.ErrInvalidCredentials)
	default:
		return fmt.Errorf("auth probe returned unexpected status %d", resp.StatusCode)
	}
}

// IssuePageURL returns the rendered HTML export URL for an issue key.
func (c *httpClient) issuePageURL(key string) string {
	return fmt.Sprintf("%s/si/jira.issueviews:issue-html/%s/%s.html", c.base.String(), key, key)
}

// FetchIssuePage implements Client.
func (c *httpClient) FetchIssuePage(ctx context.Context, key string) ([]byte, string, error) {
	pageURL := c.issuePageURL(key)

	body, _, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}
	return body, pageURL, nil
}

// FetchResource implements Client.
func (c *httpClient) FetchResource(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Err: err}
	}
	if !c.originAllowed(u) {
		return nil, "", &FetchError{URL: rawURL, Err: ErrOriginNotAllowed}
	}

	return c.get(ctx, rawURL)
}

// originAllowed reports whether a resource URL may be fetched.
func (c *httpClient) originAllowed(u *url.URL) bool {
	if !u.IsAbs() {
		return false
	}
	host := strings.ToLower(u.Host)
	if host == strings.ToLower(c.base.Host) {
		return true
	}
	_, ok := c.allowed[host]
	return ok
}

// get performs a GET and returns body bytes plus the Content-Type header.
func (c *httpClient) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Err: err}
	}

	return body, resp.Header.Get("Content-Type"), nil
}
