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

package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetOrFetchMissThenHit(t *testing.T) {
	c := New()
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (Entry, error) {
		calls++
		return Entry{Data: []byte("payload"), ContentType: "image/png"}, nil
	}

	entry, hit, err := c.GetOrFetch(ctx, "https://jira.example.com/logo.png", load)
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if hit {
		t.Error("first fetch should be a miss")
	}
	if !bytes.Equal(entry.Data, []byte("payload")) || entry.ContentType != "image/png" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	entry, hit, err = c.GetOrFetch(ctx, "https://jira.example.com/logo.png", load)
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if !hit {
		t.Error("second fetch should be a hit")
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGetOrFetchErrorNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()

	failing := func(ctx context.Context) (Entry, error) {
		return Entry{}, errors.New("boom")
	}

	if _, _, err := c.GetOrFetch(ctx, "https://jira.example.com/x.css", failing); err == nil {
		t.Fatal("expected loader error")
	}
	if c.Len() != 0 {
		t.Errorf("failed load cached, Len() = %d, want 0", c.Len())
	}

	// A later caller retries and succeeds.
	entry, hit, err := c.GetOrFetch(ctx, "https://jira.example.com/x.css", func(ctx context.Context) (Entry, error) {
		return Entry{Data: []byte("body{}"), ContentType: "text/css"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch() retry error = %v", err)
	}
	if hit {
		t.Error("retry after failure should be a miss")
	}
	if string(entry.Data) != "body{}" {
		t.Errorf("entry data = %q, want %q", entry.Data, "body{}")
	}
}

// Concurrent misses on one URL must run the loader exactly once; every
// caller still gets the payload.
func TestGetOrFetchConcurrentSingleLoad(t *testing.T) {
	c := New()
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (Entry, error) {
		calls.Add(1)
		<-release
		return Entry{Data: []byte("shared"), ContentType: "image/gif"}, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]Entry, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrFetch(ctx, "https://jira.example.com/shared.gif", load)
		}(i)
	}

	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Errorf("worker %d error = %v", i, errs[i])
		}
		if string(results[i].Data) != "shared" {
			t.Errorf("worker %d got data %q, want %q", i, results[i].Data, "shared")
		}
	}
}

func TestGetOrFetchContextCancelledWhileWaiting(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = c.GetOrFetch(context.Background(), "https://jira.example.com/slow.png", func(ctx context.Context) (Entry, error) {
			close(started)
			<-release
			return Entry{Data: []byte("slow")}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.GetOrFetch(ctx, "https://jira.example.com/slow.png", func(ctx context.Context) (Entry, error) {
		t.Error("waiter should not run the loader")
		return Entry{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	close(release)
}

func TestStats(t *testing.T) {
	c := New()
	ctx := context.Background()

	load := func(ctx context.Context) (Entry, error) {
		return Entry{Data: []byte("a")}, nil
	}

	_, _, _ = c.GetOrFetch(ctx, "u1", load)
	_, _, _ = c.GetOrFetch(ctx, "u1", load)
	_, _, _ = c.GetOrFetch(ctx, "u2", load)

	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats() = (%d, %d), want (1, 2)", hits, misses)
	}
}
