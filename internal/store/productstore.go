// Package store persists the index of converted radar products.
package store

import (
	"time"
)

// Product is one converted radar PNG registered in the index.
type Product struct {
	ID        string    `db:"id"`
	Product   string    `db:"product"`    // product name, e.g. "maxz"
	Timestamp time.Time `db:"timestamp"`  // observation time, UTC
	RainScore float64   `db:"rain_score"` // -1 when unknown (legacy files)
	Filename  string    `db:"filename"`   // PNG filename inside the product folder
	SizeBytes int64     `db:"size_bytes"`
	CreatedAt time.Time `db:"created_at"`
}

// HasScore reports whether the product carries a known rain score.
func (p *Product) HasScore() bool {
	return p.RainScore >= 0
}

// ProductStore is the persistence interface for the product index.
type ProductStore interface {
	CreateSchema() error
	Ping() bool
	Close() error

	// Insert registers a product and returns its generated id. Inserting the
	// same (product, filename) pair twice is an error.
	Insert(p *Product) (string, error)
	ExistsFilename(product, filename string) (bool, error)
	// ListByRange returns products of one product type with start <= timestamp <= end,
	// ordered by timestamp ascending.
	ListByRange(product string, start, end time.Time) ([]*Product, error)
	// Latest returns the newest product of a product type, or nil when none exists.
	Latest(product string) (*Product, error)
	// DeleteOlderThan removes index rows with timestamps before cutoff and
	// returns the deleted filenames so callers can remove the files too.
	DeleteOlderThan(product string, cutoff time.Time) ([]string, error)
}
