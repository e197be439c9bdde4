package upstream

import "context"

// jsonGetter is the narrow interface each client depends on instead of the
// concrete *HTTPTransport, so tests can substitute a hand-written fake
// instead of making real HTTP calls.
type jsonGetter interface {
	GetJSON(ctx context.Context, path string, out interface{}) error
}
