package store

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the product index in a single SQLite database.
type SQLiteStore struct {
	db               *sql.DB
	connectionString string
}

// NewSQLiteStore opens (or creates) the SQLite database at connectionString.
func NewSQLiteStore(connectionString string) (ProductStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

// CreateSchema ensures the index table exists. Timestamps are stored as unix
// seconds in UTC.
func (s *SQLiteStore) CreateSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS radar_products (
		id TEXT PRIMARY KEY,
		product TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		rain_score REAL NOT NULL,
		filename TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (product, filename)
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_radar_products_ts
		ON radar_products (product, timestamp)`)
	return err
}

// Ping reports whether the database is reachable. In SQLite the file is
// created on connect, so a successful ping means the store is usable.
func (s *SQLiteStore) Ping() bool {
	return s.db.Ping() == nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Insert(p *Product) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`INSERT INTO radar_products
		(id, product, timestamp, rain_score, filename, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Product, p.Timestamp.UTC().Unix(), p.RainScore, p.Filename, p.SizeBytes, createdAt.Unix())
	if err != nil {
		return "", err
	}

	p.ID = id
	return id, nil
}

func (s *SQLiteStore) ExistsFilename(product, filename string) (bool, error) {
	row := s.db.QueryRow(`SELECT COUNT(1) FROM radar_products WHERE product = ? AND filename = ?`,
		product, filename)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) ListByRange(product string, start, end time.Time) ([]*Product, error) {
	rows, err := s.db.Query(`SELECT id, product, timestamp, rain_score, filename, size_bytes, created_at
		FROM radar_products
		WHERE product = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		product, start.UTC().Unix(), end.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) Latest(product string) (*Product, error) {
	row := s.db.QueryRow(`SELECT id, product, timestamp, rain_score, filename, size_bytes, created_at
		FROM radar_products
		WHERE product = ?
		ORDER BY timestamp DESC
		LIMIT 1`, product)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) DeleteOlderThan(product string, cutoff time.Time) ([]string, error) {
	rows, err := s.db.Query(`SELECT filename FROM radar_products WHERE product = ? AND timestamp < ?`,
		product, cutoff.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		filenames = append(filenames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(`DELETE FROM radar_products WHERE product = ? AND timestamp < ?`,
		product, cutoff.UTC().Unix()); err != nil {
		return nil, err
	}
	return filenames, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var ts, createdAt int64
	if err := row.Scan(&p.ID, &p.Product, &ts, &p.RainScore, &p.Filename, &p.SizeBytes, &createdAt); err != nil {
		return nil, err
	}
	p.Timestamp = time.Unix(ts, 0).UTC()
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}
