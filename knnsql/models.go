package knnsql

import (
	"fmt"
	"sync"

	"github.com/viant/knn/classifier"
)

// Model is a fitted classifier exposed to SQL under a name.
type Model = classifier.Classifier[int64]

var registry = struct {
	mu     sync.RWMutex
	byName map[string]*Model
}{byName: map[string]*Model{}}

// RegisterModel publishes clf under name to every connection, replacing any
// model previously registered under that name. Virtual tables resolve their
// model on each scan, so a replaced or refitted model is picked up without
// recreating the table.
func RegisterModel(name string, clf *Model) error {
	if name == "" {
		return fmt.Errorf("knn: model name is empty")
	}
	if clf == nil {
		return fmt.Errorf("knn: model %q is nil", name)
	}
	registry.mu.Lock()
	registry.byName[name] = clf
	registry.mu.Unlock()
	return nil
}

// UnregisterModel removes name and reports whether it was registered.
func UnregisterModel(name string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	_, ok := registry.byName[name]
	delete(registry.byName, name)
	return ok
}

func lookupModel(name string) (*Model, error) {
	registry.mu.RLock()
	clf := registry.byName[name]
	registry.mu.RUnlock()
	if clf == nil {
		return nil, fmt.Errorf("knn: unknown model %q", name)
	}
	return clf, nil
}
