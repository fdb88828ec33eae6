// Package artifact resolves and deserializes the model pipeline and its
// companion artifacts from storage. Artifacts may have been written by any of
// several compatible mechanisms, so loading probes a fixed list of file
// extensions and then a fixed list of decoder backends, aggregating every
// failure instead of silently swallowing any of them.
package artifact

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound reports that neither the base path nor any probed extension
// exists on disk.
var ErrNotFound = errors.New("artifact not found")

// extensions probed, in order, when the exact path does not exist.
var extensions = []string{".gob", ".json", ".yaml"}

// LoadError aggregates the failure of every decoder backend for a resolved
// path. It is fatal: an artifact that no backend can read means the bundle on
// disk is broken, not that a default should be fabricated.
type LoadError struct {
	Path     string
	Attempts []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to decode artifact %s (tried %s)", e.Path, strings.Join(e.Attempts, "; "))
}

// Load resolves path (with or without extension) and decodes the artifact
// into out. Decoder backends are tried in a fixed order; the first success
// wins.
func Load(path string, out any) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", resolved, err)
	}

	var attempts []string
	for _, backend := range decoders {
		if err := backend.decode(data, out); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", backend.name, err))
			continue
		}
		return nil
	}

	return &LoadError{Path: resolved, Attempts: attempts}
}

// Save writes an artifact in the format its extension names, appending the
// gob extension when the path carries none of the known ones. The bytes on
// disk must match the extension or a later Load would decode them with the
// wrong backend first.
func Save(path string, in any) error {
	if !hasKnownExtension(path) {
		path += extensions[0]
	}

	data, err := encode(path, in)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

func encode(path string, in any) ([]byte, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return json.Marshal(in)
	case strings.HasSuffix(path, ".yaml"):
		return yaml.Marshal(in)
	default:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(in); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func resolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, ext := range extensions {
		candidate := path + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

func hasKnownExtension(path string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

type decoder struct {
	name   string
	decode func(data []byte, out any) error
}

// Backend order mirrors write preference: binary gob artifacts first, then
// the text formats. JSON before YAML because YAML accepts nearly any input
// and would mask JSON syntax errors.
var decoders = []decoder{
	{name: "gob", decode: func(data []byte, out any) error {
		return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
	}},
	{name: "json", decode: func(data []byte, out any) error {
		return json.Unmarshal(data, out)
	}},
	{name: "yaml", decode: func(data []byte, out any) error {
		return yaml.Unmarshal(data, out)
	}},
}
