package state

// Store persists the single "service is active" marker. Presence of the
// marker means the last confirmed action was a successful start; absence
// means the service was stopped or never started. The marker is advisory:
// the supervisor's live status is authoritative, the marker only gates
// condrestart and informs status when the supervisor is unreachable.
//
// Set and Clear are idempotent. Exists returns an error only on I/O
// failure; "marker not present" is a normal result, not an error.
type Store interface {
	Exists() (bool, error)
	Set() error
	Clear() error

	// Lock acquires an exclusive advisory lock serializing concurrent
	// controller invocations against the same marker. It blocks until the
	// lock is held and returns the release function. The lock must be held
	// for the whole read-act-write span of one action.
	Lock() (func(), error)
}
