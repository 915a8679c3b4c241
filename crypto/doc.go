// Package crypto provides the cryptographic primitives for the QADR
// anonymous data-reporting protocol.
//
// This package implements the low-level operations the protocol core is
// built from:
//
//   - SHAKE256-based key expansion (Expand) that stretches a fixed-length
//     pairwise secret into an arbitrary-length pseudorandom pad
//   - X25519 key agreement with HKDF derivation, used to establish pairwise
//     secrets when no quantum key-distribution link is available
//   - XOR helpers for masking and aggregating byte vectors
//   - An injectable secure-randomness Source so tests can substitute
//     deterministic randomness without weakening the production path
//
// Higher-level protocol behavior (slot reservation, masking, aggregation)
// lives in the protocol and aggregator packages; this package only provides
// the primitives they depend on.
//
// # Key Expansion
//
// Expand is a deterministic function of the secret alone: a given
// (secret, length) pair always reproduces the same bytes. The output of
// SHAKE256 is computationally indistinguishable from random to anyone
// without the secret, and the extendable-output construction lets callers
// pick the pad length freely.
package crypto
