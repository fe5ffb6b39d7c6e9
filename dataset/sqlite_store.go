package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/knn/vector"
)

// SQLiteStore keeps training points in a SQLite table. Features are stored
// as float32 BLOBs (see vector.EncodeFeatures), so coordinates are loaded
// back at float32 precision.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// Match is a training point returned by Nearest.
type Match struct {
	ID       int64
	Label    int64
	Distance float64
}

// NewSQLiteStore creates a new SQLite-backed store over table, ensuring the
// schema exists. An empty table name selects DefaultTable.
func NewSQLiteStore(ctx context.Context, db *sql.DB, table string) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("dataset: db is nil")
	}
	if table == "" {
		table = DefaultTable
	}
	if err := EnsureSchema(ctx, db, table); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, table: table}, nil
}

// Add appends points in order within one transaction and returns their ids.
func (s *SQLiteStore) Add(ctx context.Context, points []Point) ([]int64, error) {
	if len(points) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(label, features) VALUES(?, ?)`, s.table))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(points))
	for i, p := range points {
		if len(p.Features) == 0 {
			return nil, fmt.Errorf("dataset: point %d has no features", i)
		}
		blob, err := vector.EncodeFeatures(p.Features)
		if err != nil {
			return nil, err
		}
		res, err := stmt.ExecContext(ctx, p.Label, blob)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Load returns all points in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([][]float64, []int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT label, features FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var vectors [][]float64
	var labels []int64
	for rows.Next() {
		var label int64
		var blob []byte
		if err := rows.Scan(&label, &blob); err != nil {
			return nil, nil, err
		}
		v, err := vector.DecodeFeatures(blob)
		if err != nil {
			return nil, nil, err
		}
		vectors = append(vectors, v)
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return vectors, labels, nil
}

// Count returns the number of stored points.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Nearest returns the k points closest to query, ordered by vec_l2 distance
// and then id, computed inside SQLite. The vec_l2 function must be registered
// (engine.RegisterVectorFunctions) before the connection was opened.
func (s *SQLiteStore) Nearest(ctx context.Context, query []float64, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := vector.EncodeFeatures(query)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, label, vec_l2(features, ?) AS distance FROM %s ORDER BY distance, id LIMIT ?`, s.table), q, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Label, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every point.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table))
	return err
}
