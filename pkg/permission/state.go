// Package permission observes the state of a single named platform permission
// through the host bridge. The oracle treats the host's permission subsystem
// as opaque: every query is a fresh read, and any failure to answer collapses
// to StateUnknown.
package permission

// State represents the observed state of a permission.
type State string

const (
	// StateUnset is a sentinel distinct from all real states. It is only
	// ever used as a watcher session's initial value, so that the first
	// observation always registers as a transition.
	StateUnset State = "unset"

	// StateUnknown indicates the oracle could not answer: the capability is
	// missing or the query failed.
	StateUnknown State = "unknown"

	// StateUndecided indicates the user has not yet responded to the
	// permission request. Page content must stay blocked until resolved.
	StateUndecided State = "undecided"

	// StateGranted indicates the permission has been granted.
	StateGranted State = "granted"

	// StateDenied indicates the user denied the permission.
	StateDenied State = "denied"
)

// IsReal returns true for states the host can actually report, i.e. every
// state except the StateUnset sentinel.
func (s State) IsReal() bool {
	return s != StateUnset
}

// parseState maps the host's wire status to a State. The host reports
// "prompt" for a pending request; anything unrecognized is unknown.
func parseState(status string) State {
	switch status {
	case "prompt":
		return StateUndecided
	case "granted":
		return StateGranted
	case "denied":
		return StateDenied
	default:
		return StateUnknown
	}
}
