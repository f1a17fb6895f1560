package domain

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusCheckedIn      Status = "CHECKED_IN"
	StatusPaid           Status = "PAID"
	StatusPrinted        Status = "PRINTED"
	StatusPreparing      Status = "PREPARING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

var knownStatuses = map[Status]struct{}{
	StatusCreated:        {},
	StatusCheckedIn:      {},
	StatusPaid:           {},
	StatusPrinted:        {},
	StatusPreparing:      {},
	StatusReadyForPickup: {},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// ParseStatus accepts only the closed set of pipeline statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := knownStatuses[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// EventType is the feed event name announced for an order in this status.
func (s Status) EventType() string {
	return "ORDER_" + string(s)
}
