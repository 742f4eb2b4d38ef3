package dispatch

// OpKind is either a disconnect or a connect
type OpKind string

const (
	Disconnect OpKind = "disconnect"
	Connect    OpKind = "connect"
)

// Operation changes one member of a many-to-many relation
type Operation struct {
	Kind OpKind `json:"kind"`
	ID   string `json:"id"`
}

// Reconcile returns the operations turning current into desired.
// Disconnects come first in current order, then connects in desired order.
// Ids present in both sets produce nothing and duplicates collapse.
func Reconcile(current, desired []string) []Operation {
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}

	var ops []Operation
	seen := make(map[string]struct{})
	for _, id := range current {
		if _, keep := want[id]; keep {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ops = append(ops, Operation{Kind: Disconnect, ID: id})
	}
	for _, id := range desired {
		if _, exists := have[id]; exists {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ops = append(ops, Operation{Kind: Connect, ID: id})
	}
	return ops
}

// ApplyOperations runs ops in order and stops at the first error.
// Callers run it inside a transaction so a failure leaves nothing behind.
func ApplyOperations(ops []Operation, disconnect, connect func(id string) error) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case Disconnect:
			err = disconnect(op.ID)
		case Connect:
			err = connect(op.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Connected returns the ids of the connect operations
func Connected(ops []Operation) []string {
	var ids []string
	for _, op := range ops {
		if op.Kind == Connect {
			ids = append(ids, op.ID)
		}
	}
	return ids
}
