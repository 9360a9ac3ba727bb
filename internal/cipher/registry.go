package cipher

import (
	"fmt"
	"sort"
	"sync"
)

var (
	operationsRegistry = make(map[string]Operation)
	registryMu         sync.RWMutex
)

// RegisterOperation adds an operation to the global registry
func RegisterOperation(op Operation) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}

	name := op.Name()
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := operationsRegistry[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}

	operationsRegistry[name] = op
	return nil
}

// MustRegister registers every op and panics on the first failure. It is
// meant for package init blocks.
func MustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := RegisterOperation(op); err != nil {
			panic(fmt.Sprintf("cipher: %v", err))
		}
	}
}

// GetOperation retrieves an operation by name
func GetOperation(name string) (Operation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, exists := operationsRegistry[name]
	return op, exists
}

// LookupOperation is GetOperation with an ErrOperationNotFound error.
func LookupOperation(name string) (Operation, error) {
	op, ok := GetOperation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, name)
	}
	return op, nil
}

// ListOperations returns all registered operations sorted by name
func ListOperations() []Operation {
	return filterOperations(func(Operation) bool { return true })
}

// ListOperationsByType returns operations of one type sorted by name
func ListOperationsByType(opType OperationType) []Operation {
	return filterOperations(func(op Operation) bool { return op.Type() == opType })
}

func filterOperations(keep func(Operation) bool) []Operation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ops := make([]Operation, 0, len(operationsRegistry))
	for _, op := range operationsRegistry {
		if keep(op) {
			ops = append(ops, op)
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name() < ops[j].Name()
	})
	return ops
}

// UnregisterOperation removes an operation from the registry (mainly for testing)
func UnregisterOperation(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(operationsRegistry, name)
}
