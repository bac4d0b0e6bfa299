package booking

import "errors"

var (
	// ErrSlotNotAvailable is returned when an exact request names a slot
	// that is outside working hours or already booked.
	ErrSlotNotAvailable = errors.New("slot not available")

	// ErrNoSlotFound is returned when an automatic search exhausts the
	// requested days and windows without finding a free slot.
	ErrNoSlotFound = errors.New("no slot matches the requested preferences")

	// ErrUnknownRequest is returned when a completion references a request
	// identity the system has no record of.
	ErrUnknownRequest = errors.New("unknown booking request")

	// ErrUnknownService is returned when a request carries a service the
	// catalog does not define.
	ErrUnknownService = errors.New("unknown service")
)
