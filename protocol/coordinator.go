package protocol

import (
	"fmt"
	"slices"

	"github.com/ailabteam/go-qadr/aggregator"
	"github.com/ailabteam/go-qadr/crypto"
	"github.com/ailabteam/go-qadr/qkd"
)

// Dependencies are the external primitives a coordinator builds on. Every
// zero field selects the production implementation, so the zero value is a
// valid production wiring.
type Dependencies struct {
	// Rand supplies all protocol randomness: secrets, messages,
	// pseudonyms, and slot choices.
	Rand crypto.Source

	// Expander stretches pairwise secrets into masking pads.
	Expander crypto.Expander

	// Link establishes the pairwise secrets at setup. Defaults to a
	// simulated QKD link drawing from Rand.
	Link qkd.Link

	// Observer receives per-round telemetry. Defaults to NopObserver.
	Observer RoundObserver
}

func (d *Dependencies) fillDefaults() {
	if d.Rand == nil {
		d.Rand = crypto.NewSecureSource()
	}
	if d.Expander == nil {
		d.Expander = crypto.ShakeExpander{}
	}
	if d.Link == nil {
		d.Link = qkd.SimulatedLink{Rand: d.Rand}
	}
	if d.Observer == nil {
		d.Observer = NopObserver{}
	}
}

// RunResult is the public outcome of a completed protocol run.
type RunResult struct {
	// ReservationRounds is the number of reservation rounds consumed.
	ReservationRounds int `json:"reservation_rounds"`

	// SlotCount is the reservation slot count m.
	SlotCount int `json:"slot_count"`

	// DataVector is the final public data vector: the concatenation, in
	// dense-index order, of every participant's plaintext message.
	DataVector []byte `json:"data_vector"`
}

// Messages splits the data vector into its per-participant segments.
func (r *RunResult) Messages(messageWidth int) [][]byte {
	if messageWidth <= 0 || len(r.DataVector)%messageWidth != 0 {
		return nil
	}
	segments := make([][]byte, 0, len(r.DataVector)/messageWidth)
	for off := 0; off < len(r.DataVector); off += messageWidth {
		segments = append(segments, slices.Clone(r.DataVector[off:off+messageWidth]))
	}
	return segments
}

// Coordinator owns all mutable round state of a protocol run: the
// participant set, the occupied-slot set, and the round counter. It builds
// the QKD network and the participants once, then drives the reservation
// state machine and the final data-submission round.
type Coordinator struct {
	cfg          Config
	deps         Dependencies
	keys         *qkd.Network
	sp           *aggregator.ServiceProvider
	participants []*Participant
	slotCount    int
	rounds       int
}

// NewCoordinator validates the configuration and performs the one-time
// setup: pairwise secret establishment over all n ids and construction of
// all n participants, each with a fresh random message.
func NewCoordinator(cfg Config, deps Dependencies) (*Coordinator, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps.fillDefaults()

	ids := make([]int, cfg.Participants)
	for i := range ids {
		ids[i] = i
	}

	keys, err := qkd.NewNetwork(ids, deps.Link)
	if err != nil {
		return nil, fmt.Errorf("establishing pairwise secrets: %w", err)
	}

	participants := make([]*Participant, cfg.Participants)
	for i, id := range ids {
		message := make([]byte, cfg.MessageLength)
		if err := deps.Rand.Read(message); err != nil {
			return nil, fmt.Errorf("generating message for participant %d: %w", id, err)
		}
		participants[i] = NewParticipant(id, ids, message, cfg.PseudonymLength, keys, deps.Expander, deps.Rand)
	}

	return &Coordinator{
		cfg:          cfg,
		deps:         deps,
		keys:         keys,
		sp:           aggregator.New(),
		participants: participants,
		slotCount:    cfg.SlotCount(),
	}, nil
}

// Config returns the run's normalized configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// SlotCount returns the reservation slot count m.
func (c *Coordinator) SlotCount() int {
	return c.slotCount
}

// Participants returns the run's participants. The slice is a copy; the
// participants are shared.
func (c *Coordinator) Participants() []*Participant {
	return slices.Clone(c.participants)
}

// ReservationRounds returns the reservation rounds consumed so far.
func (c *Coordinator) ReservationRounds() int {
	return c.rounds
}

// Run executes the full protocol: the iterative slot reservation followed
// by the single data-submission round.
func (c *Coordinator) Run() (*RunResult, error) {
	if err := c.runReservation(); err != nil {
		return nil, err
	}

	dataVector, err := c.runDataRound()
	if err != nil {
		return nil, err
	}

	return &RunResult{
		ReservationRounds: c.rounds,
		SlotCount:         c.slotCount,
		DataVector:        dataVector,
	}, nil
}

func (c *Coordinator) pending() []*Participant {
	pending := make([]*Participant, 0, len(c.participants))
	for _, p := range c.participants {
		if p.status != StatusSuccessful {
			pending = append(pending, p)
		}
	}
	return pending
}

// runReservation drives the reservation state machine until every
// participant holds a slot, then remaps slots to the dense range 0..n−1 in
// participant-id order for the data round.
func (c *Coordinator) runReservation() error {
	budget := c.cfg.RoundBudget()
	occupied := make(map[int]bool, c.slotCount)

	for round := 1; ; round++ {
		pending := c.pending()
		if len(pending) == 0 {
			break
		}
		if round > budget {
			c.deps.Observer.ReservationFinished(false, c.rounds)
			return fmt.Errorf("%w: no full reservation after %d rounds", ErrReservationTimeout, budget)
		}
		c.rounds = round

		available := make([]int, 0, c.slotCount-len(occupied))
		for slot := 0; slot < c.slotCount; slot++ {
			if !occupied[slot] {
				available = append(available, slot)
			}
		}
		if len(available) < len(pending) {
			c.deps.Observer.ReservationFinished(false, c.rounds)
			return fmt.Errorf("%w: %d free slots for %d pending participants",
				ErrInsufficientSlots, len(available), len(pending))
		}

		for _, p := range pending {
			p.resetPending()
			if err := p.NewPseudonym(); err != nil {
				return err
			}
			if err := p.ChooseSlot(available); err != nil {
				return err
			}
		}

		submitters := c.participants
		if c.cfg.Resubmit == ResubmitPending {
			submitters = pending
		} else {
			// Slot holders keep their slot but refresh their pseudonym,
			// so pseudonym reuse cannot link their activity across rounds.
			for _, p := range c.participants {
				if p.status == StatusSuccessful {
					if err := p.NewPseudonym(); err != nil {
						return err
					}
				}
			}
		}

		publicVector, err := c.submitRound(submitters, c.slotCount, c.cfg.PseudonymLength, pseudonymContent)
		if err != nil {
			return fmt.Errorf("reservation round %d: %w", round, err)
		}

		for _, p := range pending {
			p.VerifyReservation(publicVector, c.cfg.PseudonymLength)
			if p.status != StatusSuccessful {
				continue
			}
			slot, _ := p.Slot()
			if occupied[slot] {
				return fmt.Errorf("%w: participant %d claimed slot %d", ErrSlotAllocationConflict, p.id, slot)
			}
			occupied[slot] = true
		}

		c.deps.Observer.RoundCompleted(round, len(c.pending()))
	}

	// Dense remapping: slot i goes to the i-th participant in id order,
	// decoupling the data round's output order from reservation order.
	finalists := slices.Clone(c.participants)
	slices.SortFunc(finalists, func(a, b *Participant) int { return a.id - b.id })
	for i, p := range finalists {
		p.assignSlot(i)
	}

	c.deps.Observer.ReservationFinished(true, c.rounds)
	return nil
}

// runDataRound performs the single data-submission round over the dense
// n-slot vector and returns the final public data vector.
func (c *Coordinator) runDataRound() ([]byte, error) {
	publicVector, err := c.submitRound(c.participants, len(c.participants), c.cfg.MessageLength, messageContent)
	if err != nil {
		return nil, fmt.Errorf("data round: %w", err)
	}
	return publicVector, nil
}

// contentFunc selects what a participant places in its slot for a round.
type contentFunc func(*Participant) []byte

func pseudonymContent(p *Participant) []byte { return p.pseudonym }
func messageContent(p *Participant) []byte   { return p.message }

// submitRound has every submitter build and mask its vector, then folds
// the batch into the public vector. Masking is computed against the
// submitting set: with every unordered pair present in exactly two
// contributions, all pads cancel in the aggregate.
func (c *Coordinator) submitRound(submitters []*Participant, slotCount, slotWidth int, content contentFunc) ([]byte, error) {
	ids := make([]int, len(submitters))
	for i, p := range submitters {
		ids[i] = p.id
	}

	masked := make([][]byte, 0, len(submitters))
	for _, p := range submitters {
		vector, err := p.BuildVector(content(p), slotCount, slotWidth)
		if err != nil {
			return nil, fmt.Errorf("participant %d building vector: %w", p.id, err)
		}

		others := make([]int, 0, len(ids)-1)
		for _, id := range ids {
			if id != p.id {
				others = append(others, id)
			}
		}

		maskedVector, err := p.MaskVector(vector, others)
		if err != nil {
			return nil, err
		}
		masked = append(masked, maskedVector)
	}

	return c.sp.Aggregate(masked)
}
