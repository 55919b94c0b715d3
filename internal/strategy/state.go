package strategy

import "fmt"

// State is the strategy lifecycle position. Transitions are linear and only
// move forward.
type State uint8

const (
	StateConstructed State = iota
	StateFunded
	StateAuctionLive
	StateMigrated
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateFunded:
		return "funded"
	case StateAuctionLive:
		return "auction-live"
	case StateMigrated:
		return "migrated"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

type stateEvent uint8

const (
	eventFunded stateEvent = iota
	eventAuctionOpened
	eventMigrated
)

func (e stateEvent) String() string {
	switch e {
	case eventFunded:
		return "funded"
	case eventAuctionOpened:
		return "auction-opened"
	case eventMigrated:
		return "migrated"
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// advance moves the state machine one step. Callers hold the strategy mutex.
func (s *Strategy) advance(e stateEvent) error {
	switch {
	case e == eventFunded && s.state == StateConstructed:
		s.state = StateFunded
	case e == eventAuctionOpened && s.state == StateFunded:
		s.state = StateAuctionLive
	case e == eventMigrated && s.state == StateAuctionLive:
		s.state = StateMigrated
	default:
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, e, s.state)
	}
	return nil
}
