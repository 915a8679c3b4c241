// Package protocol implements the QADR anonymous data-reporting core: the
// participant state machine and the coordinator that drives slot
// reservation and data submission over a DC-net.
//
// # Protocol flow
//
// A run has two phases. During slot reservation, each participant tries to
// claim an exclusive slot in a shared vector of m = ceil(n·γ) slots:
//
//  1. Every participant without a slot picks one uniformly from the free
//     slots and generates a fresh random pseudonym.
//  2. Each participant builds a one-hot vector with its pseudonym at the
//     chosen slot and masks it with pads expanded from its pairwise
//     secrets. Participants that already hold a slot keep it, refresh
//     their pseudonym, and submit too, so the collector cannot tell who is
//     still contending.
//  3. The service provider XOR-folds all masked vectors. Pads cancel
//     pairwise, leaving the plaintext sum.
//  4. A participant that finds exactly its own pseudonym at its slot has
//     won the slot; anything else means two or more pseudonyms collided
//     there, and the participant retries next round.
//
// Reservation repeats until every participant holds a slot or the round
// budget of 2n rounds runs out. On success, slots are remapped to the dense
// range 0..n−1 in participant-id order, decoupling output ordering from
// arrival order.
//
// In the single data-submission round, every participant places its real
// message at its dense slot in an n-slot vector, masks it the same way, and
// the aggregated result is the concatenation of all messages. As long as
// at least two participants are honest, nothing ties a message to its
// contributor.
//
// # Resubmission policy
//
// The canonical behavior (ResubmitAll) has every participant submit every
// reservation round. ResubmitPending is a cheaper, explicitly configured
// alternative where only contending participants submit; masking is then
// computed against the round's submitting set so pads still cancel. It
// trades away traffic-analysis resistance: the collector can see which
// participants have finished.
//
// All randomness flows through an injectable crypto.Source and all pad
// expansion through a crypto.Expander, so tests can make runs
// deterministic without touching the production path.
package protocol
