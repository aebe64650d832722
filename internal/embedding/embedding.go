// Package embedding defines embedder-side contracts shared by the
// implementations in its subpackages.
package embedding

// Stateful is implemented by embedders whose query-time behaviour depends on
// the corpus preparation phase. The marshalled state travels inside each
// role's persisted index so the index stays self-contained.
type Stateful interface {
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}
