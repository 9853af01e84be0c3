package safeatomic

import "encoding/json"

// WriteJSON marshals v (indented, trailing newline) and writes it through
// an atomic session. It adds no locking semantics of its own.
func WriteJSON(path string, v any, opts WriteOptions) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return WriteFile(path, data, opts)
}

// ReadJSON reads the target's committed content and unmarshals it into v.
func ReadJSON(path string, v any, opts ReadOptions) error {
	data, err := ReadFile(path, opts)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
