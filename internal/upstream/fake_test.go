package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// fakeTransport is a hand-written stand-in for *HTTPTransport: it returns a
// canned JSON body or a canned error, with no real network I/O.
type fakeTransport struct {
	body []byte
	err  error
	hits int
}

func fakeJSON(v interface{}) *fakeTransport {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &fakeTransport{body: b}
}

func fakeFailure(err error) *fakeTransport {
	return &fakeTransport{err: err}
}

func (f *fakeTransport) GetJSON(ctx context.Context, path string, out interface{}) error {
	f.hits++
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal(f.body, out)
}

// noopCache always misses and discards writes, so every test exercises the
// transport path rather than a cache hit.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) ([]byte, bool)                    { return nil, false }
func (noopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
func (noopCache) Delete(ctx context.Context, key string)                               {}

var errUpstream = errors.New("upstream unreachable")
