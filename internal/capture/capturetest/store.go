// Package capturetest provides an in-memory object store for pipeline tests.
package capturetest

import (
	"context"
	"io"
	"sync"

	"github.com/your-org/camflow/pkg/storage/objectstore"
)

// Put records one call to Store.Put.
type Put struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Store implements objectstore.Client and records every Put. When Err is set
// Put returns it without storing anything.
type Store struct {
	mu   sync.Mutex
	puts []Put
	Err  error
}

var _ objectstore.Client = (*Store)(nil)

func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, opts objectstore.PutOptions) error {
	body, readErr := io.ReadAll(io.LimitReader(reader, size))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, Put{Key: key, Body: body, ContentType: opts.ContentType, Metadata: opts.Metadata})
	if s.Err != nil {
		return s.Err
	}
	return readErr
}

func (s *Store) URI(key string) string { return "mem://test/" + key }

func (s *Store) Close() error { return nil }

// Puts returns a copy of the recorded calls, failed ones included.
func (s *Store) Puts() []Put {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Put(nil), s.puts...)
}

// Calls returns the number of Put calls so far.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}
