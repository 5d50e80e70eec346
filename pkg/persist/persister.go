package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFile encodes state with codec into path. The file is written to a
// temporary sibling first and renamed into place.
func SaveFile(path string, codec Codec, state any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if err = codec.Encode(tmp, state); err != nil {
		tmp.Close()

		return fmt.Errorf("encode state: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// LoadFile decodes path with codec into state, which must be a pointer.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	if err = codec.Decode(file, state); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

// Persister handles I/O for a specific state type using a Codec.
type Persister[T any] struct {
	codec Codec
}

// NewPersister creates a persister with the given codec.
func NewPersister[T any](codec Codec) *Persister[T] {
	return &Persister[T]{codec: codec}
}

// Codec returns the persister's codec.
func (p *Persister[T]) Codec() Codec {
	return p.codec
}

// Save writes state to path.
func (p *Persister[T]) Save(path string, state *T) error {
	return SaveFile(path, p.codec, state)
}

// Load reads a T from path.
func (p *Persister[T]) Load(path string) (*T, error) {
	var state T

	if err := LoadFile(path, p.codec, &state); err != nil {
		return nil, err
	}

	return &state, nil
}
