package entity

// Booking holds the display fields of an external booking record.
// Bookings are owned elsewhere; the ledger only reads them for search.
type Booking struct {
	ID         string
	Reference  string
	ClientName string
	Title      string
}

// DisplayFields returns the fields free-text search matches against.
func (b Booking) DisplayFields() []string {
	return []string{b.Reference, b.ClientName, b.Title}
}
