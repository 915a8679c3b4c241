package protocol

// RoundObserver receives reservation progress as data. The core never
// prints; callers decide how to report. Implementations are called
// synchronously between rounds and should return quickly.
type RoundObserver interface {
	// RoundCompleted is called after each reservation round with the
	// round number and the number of participants still contending.
	RoundCompleted(round, pending int)

	// ReservationFinished is called once when the reservation phase ends,
	// with the outcome and the total rounds consumed.
	ReservationFinished(success bool, rounds int)
}

// NopObserver is a RoundObserver that discards all events.
type NopObserver struct{}

// RoundCompleted implements RoundObserver.
func (NopObserver) RoundCompleted(round, pending int) {}

// ReservationFinished implements RoundObserver.
func (NopObserver) ReservationFinished(success bool, rounds int) {}
