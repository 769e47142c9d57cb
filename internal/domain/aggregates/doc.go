// Package aggregates defines domain-facing aggregate contracts for the tracking ledger.
//
// These contracts avoid persistence/transport details and mark the write boundaries where
// derived totals, balances and merges must change atomically with the ledger rows they depend on.
package aggregates
