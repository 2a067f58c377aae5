package refetch

import "context"

// ConfigSource observes an external source of configuration snapshots.
// Implementations must emit the current configuration immediately upon
// Watch() being called so binding applies an initial configuration.
type ConfigSource interface {
	// Watch begins observing the source and returns a channel that emits
	// configuration snapshots when changes occur. The channel is closed
	// when the context is canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan Config, error)
}

// ChannelSource wraps an existing Config channel as a ConfigSource.
// Useful for testing and for bindings that already produce snapshots.
type ChannelSource struct {
	ch   <-chan Config
	sync bool
}

// NewChannelSource creates a ChannelSource that forwards snapshots from the
// given channel through an internal goroutine.
func NewChannelSource(ch <-chan Config) *ChannelSource {
	return &ChannelSource{ch: ch, sync: false}
}

// NewSyncChannelSource creates a ChannelSource that returns the source
// channel directly without an intermediate goroutine, for deterministic
// testing.
func NewSyncChannelSource(ch <-chan Config) *ChannelSource {
	return &ChannelSource{ch: ch, sync: true}
}

// Watch returns a channel that emits snapshots from the wrapped channel.
func (s *ChannelSource) Watch(ctx context.Context) (<-chan Config, error) {
	if s.sync {
		return s.ch, nil
	}

	out := make(chan Config)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
