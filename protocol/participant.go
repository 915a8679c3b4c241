package protocol

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ailabteam/go-qadr/crypto"
	"github.com/ailabteam/go-qadr/qkd"
)

// ReservationStatus tracks a participant's progress through the slot
// reservation phase.
type ReservationStatus int

const (
	// StatusPending means the participant has not yet attempted a
	// reservation or is retrying after a collision.
	StatusPending ReservationStatus = iota

	// StatusSuccessful means the participant holds an exclusive slot.
	// The slot is never reassigned except for the single dense-index
	// remapping once the whole reservation completes.
	StatusSuccessful

	// StatusCollided means the participant's last attempt collided with
	// another participant; it re-enters StatusPending next round.
	StatusCollided
)

// String returns a readable status name.
func (s ReservationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccessful:
		return "successful"
	case StatusCollided:
		return "collided"
	default:
		return fmt.Sprintf("ReservationStatus(%d)", int(s))
	}
}

// Participant is a single member of the anonymity set. It owns its
// identity, the message it will anonymously report, and its per-round
// reservation state, and it builds and masks its own vectors; the
// coordinator only sequences rounds and never sees unmasked content other
// than the aggregated public vector.
type Participant struct {
	id             int
	message        []byte
	others         []int
	keys           *qkd.Network
	expander       crypto.Expander
	rand           crypto.Source
	pseudonymWidth int

	status    ReservationStatus
	pseudonym crypto.Pseudonym
	slot      int
	hasSlot   bool
}

// NewParticipant creates a participant with the given identity and payload
// message. allIDs is the complete participant-id set of the run, self
// included; the participant masks against everyone else in that set.
func NewParticipant(id int, allIDs []int, message []byte, pseudonymWidth int,
	keys *qkd.Network, expander crypto.Expander, rand crypto.Source) *Participant {

	others := make([]int, 0, len(allIDs)-1)
	for _, other := range allIDs {
		if other != id {
			others = append(others, other)
		}
	}

	return &Participant{
		id:             id,
		message:        slices.Clone(message),
		others:         others,
		keys:           keys,
		expander:       expander,
		rand:           rand,
		pseudonymWidth: pseudonymWidth,
		status:         StatusPending,
	}
}

// ID returns the participant's stable identity.
func (p *Participant) ID() int {
	return p.id
}

// Message returns a copy of the participant's payload message.
func (p *Participant) Message() []byte {
	return slices.Clone(p.message)
}

// Status returns the current reservation status.
func (p *Participant) Status() ReservationStatus {
	return p.status
}

// Slot returns the currently chosen slot index, if one is set.
func (p *Participant) Slot() (int, bool) {
	return p.slot, p.hasSlot
}

// Pseudonym returns a copy of the current round's pseudonym.
func (p *Participant) Pseudonym() crypto.Pseudonym {
	return crypto.NewPseudonymFromBytes(p.pseudonym)
}

// OtherIDs returns the ids of all other participants in the run.
func (p *Participant) OtherIDs() []int {
	return slices.Clone(p.others)
}

// NewPseudonym overwrites the pseudonym with a fresh random value.
// Pseudonyms are refreshed every round, even after a successful
// reservation, so the collector cannot link a participant's activity
// across rounds.
func (p *Participant) NewPseudonym() error {
	pseudonym := make([]byte, p.pseudonymWidth)
	if err := p.rand.Read(pseudonym); err != nil {
		return fmt.Errorf("generating pseudonym for participant %d: %w", p.id, err)
	}
	p.pseudonym = crypto.Pseudonym(pseudonym)
	return nil
}

// ChooseSlot uniformly selects one index from available and records it as
// the current chosen slot.
func (p *Participant) ChooseSlot(available []int) error {
	if len(available) == 0 {
		return ErrNoSlotsAvailable
	}
	i, err := p.rand.Intn(len(available))
	if err != nil {
		return fmt.Errorf("choosing slot for participant %d: %w", p.id, err)
	}
	p.slot = available[i]
	p.hasSlot = true
	return nil
}

// BuildVector returns a zero-filled vector of slotCount × slotWidth bytes
// with content written at the chosen slot's offset.
func (p *Participant) BuildVector(content []byte, slotCount, slotWidth int) ([]byte, error) {
	if !p.hasSlot {
		return nil, ErrSlotNotChosen
	}
	if len(content) > slotWidth {
		return nil, fmt.Errorf("%w: %d bytes into a %d-byte slot", ErrContentTooLarge, len(content), slotWidth)
	}

	vector := make([]byte, slotCount*slotWidth)
	copy(vector[p.slot*slotWidth:], content)
	return vector, nil
}

// MaskVector XORs into a copy of vector one pad per id in otherIDs, each
// expanded from the corresponding pairwise secret to the vector's length.
// Every id in the submitting set other than self must be included: an
// omitted pad has no partner in the aggregated batch and breaks the
// cancellation invariant for that pair.
func (p *Participant) MaskVector(vector []byte, otherIDs []int) ([]byte, error) {
	masked := slices.Clone(vector)

	for _, other := range otherIDs {
		secret, err := p.keys.Secret(p.id, other)
		if err != nil {
			return nil, fmt.Errorf("participant %d masking against %d: %w", p.id, other, err)
		}
		pad, err := p.expander.Expand(secret, len(masked))
		if err != nil {
			return nil, fmt.Errorf("participant %d expanding pad for %d: %w", p.id, other, err)
		}
		crypto.XorInplace(masked, pad)
	}

	return masked, nil
}

// VerifyReservation inspects the public vector to learn whether the slot
// claim went through. If exactly one participant picked the slot, all pads
// covering it cancelled and the slot region reveals that lone pseudonym; a
// byte-exact match therefore means success. Two or more colliding
// pseudonyms XOR together and reproduce either operand only with
// probability 2^(−8P), so any mismatch is treated as a collision. No-op if
// the participant did not submit this round.
func (p *Participant) VerifyReservation(publicVector []byte, slotWidth int) {
	if !p.hasSlot || p.pseudonym == nil {
		return
	}

	start := p.slot * slotWidth
	end := start + len(p.pseudonym)
	if end > len(publicVector) {
		p.status = StatusCollided
		return
	}

	if bytes.Equal(publicVector[start:end], p.pseudonym) {
		p.status = StatusSuccessful
	} else {
		p.status = StatusCollided
	}
}

// resetPending returns a collided participant to the contending state at
// the start of a round.
func (p *Participant) resetPending() {
	p.status = StatusPending
	p.hasSlot = false
}

// assignSlot overwrites the slot index. Used only for the dense-index
// remapping after the whole reservation completes.
func (p *Participant) assignSlot(slot int) {
	p.slot = slot
	p.hasSlot = true
}
