// Package qkd simulates a fully-connected quantum key-distribution network.
//
// In a real deployment, establishing pairwise keys is a physical process
// between every pair of participants. This package abstracts that process to
// its outcome: one uniformly random, fixed-length secret per unordered
// participant pair, produced once at setup and served read-only for the
// rest of the run.
//
// Two link implementations are provided. SimulatedLink stands in for the
// physical quantum channel and draws each secret directly from a secure
// randomness source. ExchangeLink derives secrets with X25519 key agreement
// between per-participant keypairs, the substitute a deployment without QKD
// hardware would use.
package qkd
