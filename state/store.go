package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Store is the JSON state document on disk.
// It holds no data in memory between calls: each method loads the file,
// applies its change and saves the whole document again.
type Store struct {
	dir  string
	path string
}

// NewStore creates a store whose document lives in dir/agdt-state.json.
// The directory is created on the first write.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		path: filepath.Join(dir, FileName),
	}
}

// Open resolves the state directory with Dir and returns a store for it.
func Open() (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Dir returns the directory holding the state document.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of the state document.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored at a dotted key.
// Objects come back as map[string]any, numbers as float64.
func (s *Store) Get(key string) (any, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}

	result := gjson.GetBytes(doc, readPath(key))
	if !result.Exists() {
		return nil, false, nil
	}
	return result.Value(), true, nil
}

// GetString returns the value at key rendered as a string.
// Missing keys return "".
func (s *Store) GetString(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(doc, readPath(key)).String(), nil
}

// Set stores value at a dotted key, creating intermediate objects.
// Setting "a.b" on a document where "a" is already an object merges into it.
func (s *Store) Set(key string, value any) error {
	if err := checkWritableKey(key); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}

	doc, err = sjson.SetRawBytes(doc, writePath(key), raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.save(doc)
}

// Delete removes a dotted key. It reports whether the key existed.
func (s *Store) Delete(key string) (bool, error) {
	if err := checkWritableKey(key); err != nil {
		return false, err
	}

	doc, err := s.load()
	if err != nil {
		return false, err
	}

	if !gjson.GetBytes(doc, readPath(key)).Exists() {
		return false, nil
	}

	doc, err = sjson.DeleteBytes(doc, writePath(key))
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, s.save(doc)
}

// Clear removes every key, including the workflow state.
func (s *Store) Clear() error {
	return s.save([]byte("{}"))
}

// All returns the whole document as a map.
func (s *Store) All() (map[string]any, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	all := make(map[string]any)
	if err := json.Unmarshal(doc, &all); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return all, nil
}

// Keys returns the sorted top-level keys of the document.
func (s *Store) Keys() ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var keys []string
	gjson.ParseBytes(doc).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// load reads the document. A missing or empty file is an empty object.
func (s *Store) load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: %s", ErrCorruptDocument, s.path)
	}
	return data, nil
}

// save writes the document through a temp file and rename.
func (s *Store) save(doc []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data := pretty.Pretty(doc)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// checkWritableKey rejects empty keys and keys under the workflow entry,
// which is only written through the workflow helpers.
func checkWritableKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if key == WorkflowKey || strings.HasPrefix(key, WorkflowKey+".") {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}
	return nil
}

// gjson treats these as wildcards or modifiers inside a path component.
const pathSpecials = `\*?|#@!`

// readPath escapes a dotted key for gjson.
func readPath(key string) string {
	parts := strings.Split(key, ".")
	for i, part := range parts {
		parts[i] = escapeComponent(part)
	}
	return strings.Join(parts, ".")
}

// writePath escapes a dotted key for sjson. Numeric components get the ':'
// prefix so sjson creates object keys instead of array slots.
func writePath(key string) string {
	parts := strings.Split(key, ".")
	for i, part := range parts {
		part = escapeComponent(part)
		if isNumeric(part) {
			part = ":" + part
		}
		parts[i] = part
	}
	return strings.Join(parts, ".")
}

func escapeComponent(part string) string {
	if !strings.ContainsAny(part, pathSpecials) {
		return part
	}
	var b strings.Builder
	for _, r := range part {
		if strings.ContainsRune(pathSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
