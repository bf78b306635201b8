package lifecycle

import "sync/atomic"

// Phase is the process lifecycle stage reported by /health.
type Phase int32

const (
	// Loading: the server may be listening but the dataset is not in memory yet.
	Loading Phase = iota
	// Ready: the dataset is loaded and dashboards can be rendered.
	Ready
	// ShuttingDown: SIGTERM/SIGINT received; draining in-flight requests.
	ShuttingDown
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

var phase atomic.Int32

// Set moves the process to p.
func Set(p Phase) {
	phase.Store(int32(p))
}

// Current returns the process phase.
func Current() Phase {
	return Phase(phase.Load())
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return Current() == ShuttingDown
}
