// Package ledger defines the unit of work a poll cycle writes through.
//
// Both the PostgreSQL and SQLite stores hand a Tx to the cycle callback; all
// claims and the watermark advance made through it commit or roll back
// together.
package ledger

import "context"

// Tx is the transactional view of the dedup ledger and the watermark.
type Tx interface {
	// TryClaim inserts the (item, keyword) pair and reports whether this call
	// created it. A false result means the pair was already processed.
	TryClaim(ctx context.Context, itemID, keywordID int64) (bool, error)

	// SetWatermark persists itemID as the last scanned item. The stored value
	// never decreases.
	SetWatermark(ctx context.Context, itemID int64) error
}

// Func is the body of a cycle unit of work. Returning an error rolls back
// every write made through the Tx.
type Func func(ctx context.Context, tx Tx) error
