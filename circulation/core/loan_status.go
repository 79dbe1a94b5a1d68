package core

// LoanStatus is the closed set of loan states.
type LoanStatus uint8

const (
	LoanStatusBorrowed LoanStatus = iota + 1
	LoanStatusReturned
	LoanStatusOverdue
	LoanStatusLost
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusBorrowed: {LoanStatusReturned, LoanStatusOverdue, LoanStatusLost},
	LoanStatusOverdue:  {LoanStatusReturned, LoanStatusLost},
}

// CanTransitionTo reports whether the transition table allows moving from s to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsActive reports whether the loan still holds a copy.
func (s LoanStatus) IsActive() bool {
	return s == LoanStatusBorrowed || s == LoanStatusOverdue
}

func (s LoanStatus) String() string {
	switch s {
	case LoanStatusBorrowed:
		return "borrowed"
	case LoanStatusReturned:
		return "returned"
	case LoanStatusOverdue:
		return "overdue"
	case LoanStatusLost:
		return "lost"
	default:
		return "unknown"
	}
}
