package mosaic

//go:generate enumer -json -type State -trimprefix State

// State is the lifecycle state of a mosaic run
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateResolvingTiles
	StateProcessingTiles
	StateMerging
	StateDone
	StateFailed
)

var transitions = map[State][]State{
	StateIdle:            {StateValidating},
	StateValidating:      {StateResolvingTiles, StateFailed},
	StateResolvingTiles:  {StateProcessingTiles, StateFailed},
	StateProcessingTiles: {StateMerging, StateFailed},
	StateMerging:         {StateDone, StateFailed},
}

// CanTransitionTo returns true if the run can go from s to next
func (s State) CanTransitionTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Done and Failed
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
