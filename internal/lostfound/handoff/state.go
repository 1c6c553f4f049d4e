package handoff

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

// State is a step of the finder's journey from candidate photo to contact
// handoff.
type State string

const (
	// StateIdle: a posting is selected but no candidate photo yet.
	StateIdle State = "idle"
	// StateCandidateSelected: a candidate is attached, no score.
	StateCandidateSelected State = "candidate_selected"
	// StateScoring: a similarity request is in flight.
	StateScoring  State = "scoring"
	StateMatched  State = "matched"
	StateRejected State = "rejected"
	// StateContactForm: collecting FinderContact after a match.
	StateContactForm State = "contact_form"
	// StateSubmitted: contact accepted and the posting retired. Only Close leaves it.
	StateSubmitted State = "submitted"
	// StateClosed is terminal. All ephemeral state has been dropped.
	StateClosed State = "closed"
)

// validTransitions is the transition matrix. Closed is reachable from every
// state and handled separately.
var validTransitions = map[State]map[State]bool{
	StateIdle:              {StateCandidateSelected: true},
	StateCandidateSelected: {StateCandidateSelected: true, StateScoring: true},
	StateScoring:           {StateCandidateSelected: true, StateMatched: true, StateRejected: true},
	StateMatched:           {StateCandidateSelected: true, StateContactForm: true},
	StateRejected:          {StateCandidateSelected: true},
	StateContactForm:       {StateMatched: true, StateSubmitted: true},
	StateSubmitted:         {},
	StateClosed:            {},
}

func canTransition(from, to State) bool {
	if to == StateClosed {
		return true
	}
	return validTransitions[from][to]
}

// TransitionError reports a move the state machine does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("handoff: transition %s -> %s not allowed", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return domain.ErrInvalidTransition
}
