package knnsql

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/knn/vector"
)

// Module implements vtab.Module for the knn virtual table:
//
//	CREATE VIRTUAL TABLE nn USING knn(model=clusters);
//	SELECT rank, point, label, distance FROM nn WHERE query MATCH '[300,350]';
//
// A scan returns the k neighbors the model selects for the MATCH argument,
// in selection order. Models come from the registry, so the module holds no
// database handle.
type Module struct{}

// Table represents a single knn virtual table instance.
type Table struct {
	tableName string
	model     string
}

// Cursor scans the neighbors of one query.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
}

type row struct {
	point    int64
	label    int64
	distance float64
}

const (
	colRank = iota
	colPoint
	colLabel
	colDistance
	colQuery
)

const idxMatch = 1

var registerPredictOnce sync.Once

// Register registers the knn virtual table module with the provided *sql.DB
// and the knn_predict(model, query) scalar function for new connections.
func Register(db *sql.DB) error {
	if err := vtab.RegisterModule(db, "knn", &Module{}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	var err error
	registerPredictOnce.Do(func() {
		if e := sqlite.RegisterScalarFunction("knn_predict", 2, predictFunc); e != nil && !strings.Contains(e.Error(), "already registered") {
			err = fmt.Errorf("knn: register knn_predict: %w", e)
		}
	})
	return err
}

// Create declares the table schema and binds it to a model name.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing knn table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn: expected at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knn: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(rank INTEGER, point INTEGER, label INTEGER, distance REAL, query HIDDEN)", args[2])); err != nil {
		return nil, err
	}
	t := &Table{tableName: args[2], model: parseModelName(args[3:])}
	if t.model == "" {
		t.model = args[2]
	}
	return t, nil
}

// parseModelName reads model=<name> from the module arguments; a bare
// argument is taken as the name.
func parseModelName(args []string) string {
	name := ""
	for _, raw := range args {
		a := strings.Trim(strings.TrimSpace(raw), `'"`)
		if a == "" {
			continue
		}
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			name = a
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "model") {
			name = strings.Trim(strings.TrimSpace(val), `'"`)
		}
	}
	return name
}

// BestIndex requires MATCH on the hidden query column.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == colQuery && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = idxMatch
			return nil
		}
	}
	return fmt.Errorf("knn: %s requires a MATCH constraint on query", t.tableName)
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops nothing; models live in the registry.
func (t *Table) Destroy() error { return nil }

// Filter runs the neighbor query for the MATCH argument.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos = nil, 0
	if idxNum != idxMatch || len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("knn: MATCH argument is required")
	}
	query, err := decodeQuery(vals[0])
	if err != nil {
		return err
	}
	clf, err := lookupModel(c.table.model)
	if err != nil {
		return err
	}
	e, err := clf.Explain(query)
	if err != nil {
		return err
	}
	c.rows = make([]row, 0, len(e.Neighbors))
	for i, n := range e.Neighbors {
		c.rows = append(c.rows, row{point: int64(n.Index), label: e.Labels[i], distance: n.Distance})
	}
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colRank:
		return int64(c.pos + 1), nil
	case colPoint:
		return r.point, nil
	case colLabel:
		return r.label, nil
	case colDistance:
		return r.distance, nil
	case colQuery:
		return nil, nil
	}
	return nil, fmt.Errorf("knn: unsupported column %d", col)
}

// Rowid returns the rank of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("knn: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return int64(c.pos + 1), nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

// predictFunc implements SQL scalar knn_predict(model TEXT, query) -> INTEGER.
func predictFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("knn_predict: expected 2 arguments, got %d", len(args))
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	name, err := asString(args[0])
	if err != nil {
		return nil, err
	}
	query, err := decodeQuery(args[1])
	if err != nil {
		return nil, err
	}
	clf, err := lookupModel(name)
	if err != nil {
		return nil, err
	}
	label, err := clf.PredictOne(query)
	if err != nil {
		return nil, err
	}
	return label, nil
}

// decodeQuery accepts a float32 BLOB (vector.EncodeFeatures) or a JSON
// array / comma separated list of numbers.
func decodeQuery(v any) ([]float64, error) {
	switch val := v.(type) {
	case []byte:
		return vector.DecodeFeatures(val)
	case string:
		return decodeQueryString(val)
	default:
		return nil, fmt.Errorf("knn: expected query as BLOB or string, got %T", v)
	}
}

func decodeQueryString(raw string) ([]float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("knn: query string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var out []float64
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("knn: invalid query %q: %w", s, err)
		}
		return out, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("knn: invalid query coordinate %q: %w", p, err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("knn: query string must be a JSON or comma separated number list")
	}
	return out, nil
}

func asString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	}
	return "", fmt.Errorf("knn: expected TEXT, got %T", v)
}
