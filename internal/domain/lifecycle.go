package domain

// Event is a lifecycle command applied to a charter request.
type Event uint8

const (
	EventSubmitForReview Event = iota + 1
	EventPublish
	EventRecordQuote
	EventAccept
	EventComplete
	EventCancel
)

var eventNames = map[Event]string{
	EventSubmitForReview: "submit_for_review",
	EventPublish:         "publish",
	EventRecordQuote:     "record_quote",
	EventAccept:          "accept",
	EventComplete:        "complete",
	EventCancel:          "cancel",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return "unknown_event"
}

type edge struct {
	from []Status
	to   Status
}

// transitions is the request state diagram as code. Cancel is handled
// separately because it is legal from every non-terminal status.
var transitions = map[Event]edge{
	EventSubmitForReview: {from: []Status{StatusDraft}, to: StatusUnderReview},
	EventPublish:         {from: []Status{StatusUnderReview}, to: StatusPublished},
	EventRecordQuote:     {from: []Status{StatusPublished, StatusQuotesReceived}, to: StatusQuotesReceived},
	EventAccept:          {from: []Status{StatusQuotesReceived}, to: StatusAccepted},
	EventComplete:        {from: []Status{StatusAccepted}, to: StatusCompleted},
}

// Next returns the status reached by applying ev to from, or a
// *TransitionError when ev is not legal there.
func Next(from Status, ev Event) (Status, error) {
	if from.IsZero() || from.Terminal() {
		return Status{}, &TransitionError{From: from, Event: ev}
	}
	if ev == EventCancel {
		return StatusCancelled, nil
	}
	e, ok := transitions[ev]
	if !ok {
		return Status{}, &TransitionError{From: from, Event: ev}
	}
	for _, s := range e.from {
		if s == from {
			return e.to, nil
		}
	}
	return Status{}, &TransitionError{From: from, Event: ev}
}

// CanApply reports whether ev is legal from s.
func CanApply(s Status, ev Event) bool {
	_, err := Next(s, ev)
	return err == nil
}
