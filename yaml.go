package safeatomic

import "gopkg.in/yaml.v3"

// WriteYAML encodes v as YAML straight into an atomic write session, so
// large documents stream to the temp file instead of buffering in memory.
func WriteYAML(path string, v any, opts WriteOptions) error {
	w, err := NewWriter(path, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = w.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = w.Close()
		return err
	}
	return w.Commit()
}

// ReadYAML reads the target's committed content and decodes it into v.
func ReadYAML(path string, v any, opts ReadOptions) error {
	data, err := ReadFile(path, opts)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}
