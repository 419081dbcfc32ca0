// Package points accumulates warning points issued by `then points` operators.
// Points are grouped by category ("swearing", "advertising") so escalation
// commands can react to per-category totals.
package points

import (
	"context"

	"github.com/google/uuid"
)

// Store is the warning-points interface. Implementations must be safe for
// concurrent use. Point writes are advisory: the engine logs and continues
// when a Store call fails.
type Store interface {
	// Add increments the subject's total in the category and returns the new
	// total.
	Add(ctx context.Context, subject uuid.UUID, category string, amount float64) (float64, error)

	// Total returns the subject's current total in the category.
	Total(ctx context.Context, subject uuid.UUID, category string) (float64, error)

	// Close releases any resources held by the store.
	Close() error
}
