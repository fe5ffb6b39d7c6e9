package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/vec/search"
	sqlite "modernc.org/sqlite"

	"github.com/viant/knn/vector"
)

var registerOnce sync.Once

// RegisterVectorFunctions registers vec_l2 and vec_dim with the driver so
// they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterVectorFunctions(_ *sql.DB) error {
	var err error
	registerOnce.Do(func() {
		if err = register("vec_l2", 2, vecL2Impl); err != nil {
			return
		}
		err = register("vec_dim", 1, vecDimImpl)
	})
	return err
}

func register(name string, nArgs int32, fn func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error)) error {
	if err := sqlite.RegisterDeterministicScalarFunction(name, nArgs, fn); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return fmt.Errorf("engine: register %s: %w", name, err)
		}
	}
	return nil
}

func asFeatures(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeFloat32s(v)
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for feature vector; want BLOB", arg)
	}
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_l2: expected 2 arguments, got %d", len(args))
	}
	a, err := asFeatures(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asFeatures(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("vec_l2: dim mismatch %d vs %d", len(a), len(b))
	}
	return float64(search.Float32s(a).EuclideanDistance(b)), nil
}

func vecDimImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("vec_dim: expected 1 argument, got %d", len(args))
	}
	v, err := asFeatures(args[0])
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return int64(len(v)), nil
}
