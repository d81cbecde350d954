package entities

// Phase is the campaign lifecycle state. Transitions only ever advance:
// graduating -> live -> ended, or graduating -> rescue. Rescue and ended
// are terminal for deposits; ended still accepts allocations and claims.
type Phase string

const (
	PhaseGraduating Phase = "graduating"
	PhaseLive       Phase = "live"
	PhaseRescue     Phase = "rescue"
	PhaseEnded      Phase = "ended"
)

func ParsePhase(value string) (Phase, bool) {
	switch Phase(value) {
	case PhaseGraduating, PhaseLive, PhaseRescue, PhaseEnded:
		return Phase(value), true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether next is a legal successor of p.
func (p Phase) CanTransitionTo(next Phase) bool {
	switch p {
	case PhaseGraduating:
		return next == PhaseLive || next == PhaseRescue
	case PhaseLive:
		return next == PhaseEnded
	default:
		return false
	}
}

// AcceptsDeposits reports whether deposit operations are legal in p.
func (p Phase) AcceptsDeposits() bool {
	return p == PhaseGraduating || p == PhaseLive
}

// AcceptsAllocations reports whether allocation and claim operations are
// legal in p.
func (p Phase) AcceptsAllocations() bool {
	return p == PhaseEnded
}

// IsTerminal reports whether no transition is defined out of p.
func (p Phase) IsTerminal() bool {
	return p == PhaseRescue || p == PhaseEnded
}
