package model

// Status is the commission lifecycle. A named string type keeps the three
// legal values from mixing with arbitrary strings at compile time.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Status roots on disk.
const (
	RootPendings = "pendings"
	RootHistory  = "history"
)

// Root returns the top-level folder a commission with this status lives in.
// Only completed work is filed under history; everything else, including
// values this package does not know about, stays under pendings.
func (s Status) Root() string {
	if s == StatusCompleted {
		return RootHistory
	}
	return RootPendings
}

// PaymentStatus tracks how much of the price has been collected.
type PaymentStatus string

const (
	PaymentNotPaid   PaymentStatus = "Not Paid"
	PaymentHalfPaid  PaymentStatus = "Half Paid"
	PaymentFullyPaid PaymentStatus = "Fully Paid"
)

// Statuses lists every commission status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// PaymentStatuses lists every payment status.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentNotPaid, PaymentHalfPaid, PaymentFullyPaid}
}

// Commission is a piece of work ordered by a client. ClientName is copied
// from the client at creation time and is what the storage path is built
// from, so it can drift from the Client record after a rename.
type Commission struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	ClientName    string        `json:"client_name"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	PriceCents    int64         `json:"price_cents"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        Status        `json:"status"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	// Images holds relative paths (images/...) or inline data: URLs.
	Images []string `json:"images"`
}
