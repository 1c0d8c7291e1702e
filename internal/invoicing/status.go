package invoicing

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// automaticTransitions lists the moves the system makes on its own: payment
// promotion to PAID and the reminder sweep marking PENDING invoices OVERDUE.
// PAID is terminal for automatic moves, so deleting or shrinking payments
// never reverts a paid invoice. Only a manual status change can do that.
var automaticTransitions = map[Status][]Status{
	StatusDraft:   {StatusPaid},
	StatusPending: {StatusPaid, StatusOverdue},
	StatusOverdue: {StatusPaid},
	StatusPaid:    {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := automaticTransitions[s]
	return ok
}

// CanTransition reports whether the system may move an invoice from one
// status to another without user action.
func CanTransition(from, to Status) bool {
	for _, next := range automaticTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Promote applies an automatic transition when allowed and reports whether
// the status changed.
func Promote(from, to Status) (Status, bool) {
	if CanTransition(from, to) {
		return to, true
	}
	return from, false
}

// StatusClass is the badge style used by presentation layers.
func (s Status) StatusClass() string {
	switch s {
	case StatusPaid:
		return "paid"
	case StatusOverdue:
		return "overdue"
	case StatusDraft:
		return "draft"
	default:
		return "pending"
	}
}
