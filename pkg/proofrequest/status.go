package proofrequest

import "fmt"

type Status uint8

const (
	Pending Status = iota
	Proved
	Verified
	Rejected
	Expired
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Proved:
		return "proved"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	for _, c := range []Status{Pending, Proved, Verified, Rejected, Expired} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("proofrequest: unknown status %q", string(text))
}

// Terminal states accept no further transition.
func (s Status) Terminal() bool {
	return s == Verified || s == Rejected || s == Expired
}

// allowed lists forward transitions. Proved -> Proved is a forced re-prove.
var allowed = map[Status][]Status{
	Pending: {Proved, Expired},
	Proved:  {Proved, Verified, Rejected, Expired},
}

func canMove(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
