package protocol

import "errors"

// Configuration errors are raised immediately and are fatal to the run.
var (
	// ErrInvalidConfig is returned when the protocol configuration fails
	// validation.
	ErrInvalidConfig = errors.New("protocol: invalid configuration")

	// ErrNoSlotsAvailable is returned when a participant is asked to
	// choose from an empty slot set.
	ErrNoSlotsAvailable = errors.New("protocol: no slots available")

	// ErrSlotNotChosen is returned when a vector is built before a slot
	// has been chosen.
	ErrSlotNotChosen = errors.New("protocol: no slot chosen")

	// ErrContentTooLarge is returned when slot content exceeds the slot
	// width.
	ErrContentTooLarge = errors.New("protocol: content exceeds slot width")
)

// Resource-exhaustion errors are fatal to the run but distinguishable from
// configuration errors, so a caller can retry with different parameters
// (typically a larger slot ratio).
var (
	// ErrInsufficientSlots is returned when fewer free slots remain than
	// participants still contending for one.
	ErrInsufficientSlots = errors.New("protocol: insufficient free slots for pending participants")

	// ErrReservationTimeout is returned when the reservation round budget
	// is exhausted before every participant holds a slot.
	ErrReservationTimeout = errors.New("protocol: reservation round budget exhausted")
)

// ErrSlotAllocationConflict reports an invariant violation: a newly
// successful participant's slot was already marked occupied. It signals a
// defect in the free-slot computation and always aborts the run; silently
// retrying would mask a bug that breaks correctness or anonymity.
var ErrSlotAllocationConflict = errors.New("protocol: reserved slot already occupied")
