package domain

import (
	"errors"
	"strconv"
	"time"

	ordersdomain "scan-station/internal/features/orders/domain"
)

var (
	// ErrMalformedScan is returned for codes too short to carry a parcel
	// sequence or with a non-numeric suffix.
	ErrMalformedScan = errors.New("malformed scan code")
	// ErrDifferentOrder is returned when a scan arrives for an order other
	// than the active one.
	ErrDifferentOrder = errors.New("scan belongs to a different order")
	// ErrAlreadyBooked is returned for orders present in the booked ledger.
	ErrAlreadyBooked = errors.New("order already booked")
	// ErrCountMismatch is returned when a manual book is requested before the
	// scanned parcels match the expected count.
	ErrCountMismatch = errors.New("scanned parcel count does not match expected count")
	// ErrBookingInFlight is returned for events arriving while a booking call
	// is running.
	ErrBookingInFlight = errors.New("booking in flight")
	// ErrNoActiveSession is returned for operations that need a scanned order.
	ErrNoActiveSession = errors.New("no active scan session")
)

// minScanLength keeps room for at least one order digit ahead of the
// three-digit parcel suffix plus the carrier prefix.
const minScanLength = 9

// ScanCode is a parsed parcel barcode.
type ScanCode struct {
	// OrderRef is everything ahead of the parcel suffix.
	OrderRef string
	// ParcelSeq is the 1-based parcel sequence number.
	ParcelSeq int
}

// ParseScan splits a raw barcode into order reference and parcel sequence.
// The final three characters are a zero-padded sequence number; anything
// shorter than minScanLength or with a non-numeric suffix fails with
// ErrMalformedScan.
func ParseScan(code string) (ScanCode, error) {
	if len(code) < minScanLength {
		return ScanCode{}, ErrMalformedScan
	}

	suffix := code[len(code)-3:]
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 1 {
		return ScanCode{}, ErrMalformedScan
	}

	return ScanCode{
		OrderRef:  code[:len(code)-3],
		ParcelSeq: seq,
	}, nil
}

// Session is the station's single scan session. At most one order is active
// at a time; all mutation goes through the session service.
type Session struct {
	// ActiveOrder is the order reference being scanned, empty when idle.
	ActiveOrder string `json:"active_order"`
	// Order is the platform snapshot fetched when the session started.
	Order *ordersdomain.Order `json:"order,omitempty"`
	// Parcels is the set of parcel sequence numbers observed.
	Parcels map[int]bool `json:"parcels"`
	// ManualCount is the operator-declared parcel count, 0 when undeclared.
	ManualCount int `json:"manual_count"`
	// Armed is true while a booking call is in flight.
	Armed bool `json:"armed"`
	// Generation identifies this session instance; a scheduled idle commit
	// only fires if its generation still matches.
	Generation string `json:"generation"`
	// IdleDeadline is when the pending idle commit fires, zero when none.
	IdleDeadline time.Time `json:"idle_deadline,omitempty"`
	// PlaceCodeOverride pins the carrier routing code for this booking.
	PlaceCodeOverride *int `json:"place_code_override,omitempty"`
	// ServiceOverride pins the carrier service for this booking.
	ServiceOverride string `json:"service_override,omitempty"`
}

// Active reports whether an order is being scanned.
func (s Session) Active() bool {
	return s.ActiveOrder != ""
}

// AddParcel records a parcel sequence. Duplicates are idempotent; the return
// reports whether the set changed.
func (s *Session) AddParcel(seq int) bool {
	if s.Parcels == nil {
		s.Parcels = make(map[int]bool)
	}
	if s.Parcels[seq] {
		return false
	}
	s.Parcels[seq] = true
	return true
}

// ScannedCount returns the number of distinct parcels observed.
func (s Session) ScannedCount() int {
	return len(s.Parcels)
}

// ExpectedCount returns the parcel count the booking must match. A
// tag-declared count takes priority over the operator's manual count.
// Returns (0, false) when neither is known.
func (s Session) ExpectedCount() (int, bool) {
	if s.Order != nil {
		if n, ok := s.Order.ParcelCountFromTag(); ok {
			return n, true
		}
	}
	if s.ManualCount > 0 {
		return s.ManualCount, true
	}
	return 0, false
}
