package domain

import "fmt"

// Status is the lifecycle state of a charter request.
//
// It is a closed set: the field is unexported, so packages outside domain can
// only use the predeclared values below or ParseStatus. The zero Status is not
// a valid state and is rejected by every transition.
type Status struct {
	name string
}

var (
	StatusDraft          = Status{"draft"}
	StatusUnderReview    = Status{"under_review"}
	StatusPublished      = Status{"published"}
	StatusQuotesReceived = Status{"quotes_received"}
	StatusAccepted       = Status{"accepted"}
	StatusCompleted      = Status{"completed"}
	StatusCancelled      = Status{"cancelled"}
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusUnderReview,
	StatusPublished,
	StatusQuotesReceived,
	StatusAccepted,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus converts the persisted/wire name back into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if st.name == s {
			return st, nil
		}
	}
	return Status{}, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

func (s Status) String() string {
	if s.name == "" {
		return "invalid"
	}
	return s.name
}

// IsZero reports whether s is the invalid zero value.
func (s Status) IsZero() bool { return s.name == "" }

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Open reports whether operators may still quote against a request in s.
func (s Status) Open() bool {
	return s == StatusPublished || s == StatusQuotesReceived
}

func (s Status) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("domain.Status: marshal zero status")
	}
	return []byte(s.name), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
