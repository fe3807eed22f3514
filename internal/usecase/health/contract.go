package health

import "context"

// CachePinger checks the remote cache tier.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Counter reports how many components a registry holds.
type Counter interface {
	Len() int
}
