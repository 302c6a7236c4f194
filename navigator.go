package suvclient

import (
	"context"
	"sync"
)

// Navigator performs a client-side navigation. It is the Go stand-in for a
// full page load: the client drops its cached user before calling it.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, target string)

func (f NavigatorFunc) Navigate(ctx context.Context, target string) {
	if f != nil {
		f(ctx, target)
	}
}

// NopNavigator ignores navigations.
type NopNavigator struct{}

func (NopNavigator) Navigate(context.Context, string) {}

// RecordingNavigator remembers every target it was asked to visit.
type RecordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *RecordingNavigator) Navigate(_ context.Context, target string) {
	n.mu.Lock()
	n.targets = append(n.targets, target)
	n.mu.Unlock()
}

// Targets returns a copy of the recorded targets in call order.
func (n *RecordingNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

// Last returns the most recent target.
func (n *RecordingNavigator) Last() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.targets) == 0 {
		return "", false
	}
	return n.targets[len(n.targets)-1], true
}

// Reset forgets recorded targets.
func (n *RecordingNavigator) Reset() {
	n.mu.Lock()
	n.targets = nil
	n.mu.Unlock()
}
