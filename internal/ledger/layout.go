package ledger

import (
	"strconv"
	"strings"

	"busbooking/internal/domain"
)

// MaxSeatsPerRow is bounded by the single-letter column code.
const MaxSeatsPerRow = 26

// Layout derives the fixed label space of a trip: row number + column letter,
// filled row by row. The last row may be partial.
type Layout struct {
	TotalSeats  int `json:"totalSeats"`
	SeatsPerRow int `json:"seatsPerRow"`
}

// NewLayout validates seat count and row width.
func NewLayout(totalSeats, seatsPerRow int) (Layout, error) {
	if totalSeats <= 0 {
		return Layout{}, domain.ValidationError{Field: "totalSeats", Msg: "must be a positive integer"}
	}
	if seatsPerRow <= 0 || seatsPerRow > MaxSeatsPerRow {
		return Layout{}, domain.ValidationError{Field: "seatsPerRow", Msg: "must be between 1 and 26"}
	}
	return Layout{TotalSeats: totalSeats, SeatsPerRow: seatsPerRow}, nil
}

// Label returns the label of the 0-based seat index.
func (l Layout) Label(i int) string {
	row := i/l.SeatsPerRow + 1
	col := byte('A' + i%l.SeatsPerRow)
	return strconv.Itoa(row) + string(col)
}

// Labels enumerates every valid label in seat order.
func (l Layout) Labels() []string {
	out := make([]string, 0, l.TotalSeats)
	for i := 0; i < l.TotalSeats; i++ {
		out = append(out, l.Label(i))
	}
	return out
}

// Index maps a label back to its seat index. Only canonical labels are accepted
// ("1a" is normalized, "01A" is not a seat).
func (l Layout) Index(label string) (int, error) {
	norm := NormalizeLabel(label)
	if len(norm) < 2 || l.SeatsPerRow <= 0 {
		return 0, domain.InvalidSeatError{Seat: label}
	}
	colCh := norm[len(norm)-1]
	if colCh < 'A' || colCh > 'Z' {
		return 0, domain.InvalidSeatError{Seat: label}
	}
	row, err := strconv.Atoi(norm[:len(norm)-1])
	if err != nil || row < 1 {
		return 0, domain.InvalidSeatError{Seat: label}
	}
	col := int(colCh - 'A')
	if col >= l.SeatsPerRow {
		return 0, domain.InvalidSeatError{Seat: label}
	}
	idx := (row-1)*l.SeatsPerRow + col
	if idx >= l.TotalSeats || l.Label(idx) != norm {
		return 0, domain.InvalidSeatError{Seat: label}
	}
	return idx, nil
}

// NormalizeLabel trims and upper-cases a seat label.
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}
