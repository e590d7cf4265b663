package kiln

// LifecycleState tracks a container or scope through its life.
// Transitions are one-way: Building → Configured → Active → Disposing →
// Disposed. Disposed is terminal.
type LifecycleState int32

const (
	// StateBuilding means modules are being applied; resolution is rejected
	// because dependent registrations may not exist yet.
	StateBuilding LifecycleState = iota

	// StateConfigured means all modules have been applied but the container
	// has not been activated.
	StateConfigured

	// StateActive means the container accepts resolutions.
	StateActive

	// StateDisposing means teardown is in progress; new resolutions fail.
	StateDisposing

	// StateDisposed is terminal.
	StateDisposed
)

func (s LifecycleState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateDisposing:
		return "disposing"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
