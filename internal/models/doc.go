// Package models defines the core domain records for the Splitrix ledger.
//
// # Records
//
//   - Group: a set of member addresses with one admin and a bill counter
//   - Bill: one expense event with a payer and a list of debtor shares
//   - Debtor: an (address, amount, paid) record embedded in a bill
//
// # Transient inputs
//
//   - DebtorShare: caller-supplied (address, amount) pair for bill creation
//   - NettingInstruction: a cross-bill debt offset applied during bill creation
//   - PaymentProof: proof of an external payment, consumed by settlement
//
// Records are plain value types. The ledger owns all mutation; everything a
// caller receives is a disconnected snapshot.
package models
