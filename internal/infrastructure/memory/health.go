package memory

import "context"

// Pinger reports the in-process store as always reachable.
type Pinger struct{}

func (Pinger) Ping(_ context.Context) error { return nil }
