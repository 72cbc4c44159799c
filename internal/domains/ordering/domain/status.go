package domain

// Status enumerates the order lifecycle. Cart is the initial state only; it is
// never a legal target of an explicit transition.
type Status string

const (
	StatusCart       Status = "cart"
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether the value is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCart, StatusNew, StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Cancelable reports whether the order may still be canceled (by an admin).
func (s Status) Cancelable() bool {
	return s == StatusNew || s == StatusProcessing
}

// next returns the single permitted forward step, or "" when there is none.
func (s Status) next() Status {
	switch s {
	case StatusNew:
		return StatusProcessing
	case StatusProcessing:
		return StatusShipped
	case StatusShipped:
		return StatusDelivered
	default:
		return ""
	}
}
