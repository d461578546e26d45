package health

import "context"

// SourcePinger checks row source availability.
type SourcePinger interface {
	Ping(ctx context.Context) error
}

// StorePinger checks document store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
