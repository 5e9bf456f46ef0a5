package lifecycle

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInvalidTransition matches every *TransitionError under errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports an action that is not defined for the entity's
// current status. Terminal statuses and stale actions land here too.
type TransitionError struct {
	Entity string
	Status Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Invalid action '%s' for current status '%s'", e.Action, e.Status)
}

// Is lets errors.Is(err, ErrInvalidTransition) succeed.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Transition returns the status reached from s by action a.
// It is deterministic and has no side effects.
func (t *Table) Transition(s Status, a Action) (Status, error) {
	to, ok := t.Lookup(s, a)
	if !ok {
		return "", &TransitionError{Entity: t.entity, Status: s, Action: a}
	}
	return to, nil
}

// ─── Policy result ───────────────────────────────────────────────────────────

// Effect is the auxiliary work a caller must perform after persisting a
// transition. Policies only declare it; they never perform it.
type Effect int

const (
	// EffectNone: nothing beyond the status write.
	EffectNone Effect = iota
	// EffectStampPublished: record the publish timestamp with the status.
	EffectStampPublished
	// EffectNotifyApplicant: tell the applicant about Result.To.
	EffectNotifyApplicant
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectStampPublished:
		return "stamp-published"
	case EffectNotifyApplicant:
		return "notify-applicant"
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// Result is the outcome of a successful policy decision.
type Result struct {
	From   Status
	To     Status
	Effect Effect
}
