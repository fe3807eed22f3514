package backend

// Scope is a mutable map created per top-level request and passed to every
// backend call of that request. It is the only channel for a backend to
// signal state to itself across calls within one request (e.g. "already
// retried once"). Keys should be namespaced by backend name.
type Scope map[string]any

// NewScope returns an empty request scope.
func NewScope() Scope { return Scope{} }

// Flag reports whether key was marked.
func (s Scope) Flag(key string) bool {
	v, ok := s[key].(bool)
	return ok && v
}

// Mark sets key to true.
func (s Scope) Mark(key string) { s[key] = true }
