package safeatomic

import (
	"bytes"
	"encoding/gob"
)

// WriteGob encodes v with encoding/gob through an atomic write session.
// This is the binary-object counterpart of the JSON and YAML helpers.
func WriteGob(path string, v any, opts WriteOptions) error {
	w, err := NewWriter(path, opts)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		_ = w.Close()
		return err
	}
	return w.Commit()
}

// ReadGob reads the target's committed content and gob-decodes it into v,
// which must be a pointer.
func ReadGob(path string, v any, opts ReadOptions) error {
	data, err := ReadFile(path, opts)
	if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
