// Package source reads grid rows from JSON or YAML files and writes edited
// cells back.
//
// Documents are held as JSON. Rows are located with a gjson path and cells
// are patched with sjson, so a JSON file keeps its layout when saved. YAML
// files are converted to JSON on load and back on save, which drops
// comments.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/gridstorm/internal/model"
)

// Errors returned by File.
var (
	ErrNotArray    = errors.New("rows path does not select an array")
	ErrRowNotFound = errors.New("row not found in source")
)

// RowError reports a row element that is not an object.
type RowError struct {
	Index int
	Type  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d is a %s, want an object", e.Index, e.Type)
}

// Format is a source document syntax.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported source format %q", filepath.Ext(path))
}

// Options locate rows inside a document.
type Options struct {
	// RowsPath is a gjson path to the row array. Empty means the document
	// root.
	RowsPath string
	// IDField names the id field. Empty means "id".
	IDField string
}

// File is a loaded row document.
type File struct {
	path   string
	format Format
	opts   Options
	doc    []byte
}

// Open reads a row document.
func Open(path string, opts Options) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	f := &File{path: path, format: format, opts: opts}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// FromBytes wraps an in-memory document.
func FromBytes(format Format, data []byte, opts Options) (*File, error) {
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	f := &File{format: format, opts: opts}
	if err := f.setDoc(data); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// JSON returns the document as JSON.
func (f *File) JSON() []byte { return f.doc }

// Reload re-reads the file.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	return f.setDoc(data)
}

func (f *File) setDoc(data []byte) error {
	if f.format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("parsing %s: %w", f.displayName(), err)
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("converting %s: %w", f.displayName(), err)
		}
		data = converted
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("parsing %s: invalid JSON", f.displayName())
	}
	f.doc = data
	return nil
}

func (f *File) displayName() string {
	if f.path == "" {
		return "<input>"
	}
	return f.path
}

func (f *File) rows() (gjson.Result, error) {
	res := gjson.ParseBytes(f.doc)
	if f.opts.RowsPath != "" {
		res = res.Get(f.opts.RowsPath)
	}
	if !res.IsArray() {
		return res, fmt.Errorf("%w: %q", ErrNotArray, f.opts.RowsPath)
	}
	return res, nil
}

// Rows decodes every row.
func (f *File) Rows() ([]model.Row, error) {
	arr, err := f.rows()
	if err != nil {
		return nil, err
	}
	elems := arr.Array()
	out := make([]model.Row, 0, len(elems))
	for i, elem := range elems {
		obj, ok := elem.Value().(map[string]any)
		if !ok {
			return nil, &RowError{Index: i, Type: elem.Type.String()}
		}
		out = append(out, model.Row(obj))
	}
	return out, nil
}

// SetCell writes a value into the row with the given id.
func (f *File) SetCell(id any, field string, value any) error {
	want, err := model.NormalizeID(id)
	if err != nil {
		return err
	}
	arr, err := f.rows()
	if err != nil {
		return err
	}

	index := -1
	arr.ForEach(func(key, elem gjson.Result) bool {
		got, err := model.NormalizeID(elem.Get(EscapeKey(f.opts.IDField)).Value())
		if err == nil && got == want {
			index = int(key.Int())
			return false
		}
		return true
	})
	if index < 0 {
		return fmt.Errorf("%w: %v", ErrRowNotFound, id)
	}

	path := strconv.Itoa(index) + "." + EscapeKey(field)
	if f.opts.RowsPath != "" {
		path = f.opts.RowsPath + "." + path
	}
	doc, err := sjson.SetBytes(f.doc, path, value)
	if err != nil {
		return fmt.Errorf("writing %s of row %v: %w", field, id, err)
	}
	f.doc = doc
	return nil
}

// Encode returns the document in the file's format.
func (f *File) Encode() ([]byte, error) {
	if f.format != FormatYAML {
		return f.doc, nil
	}
	var v any
	if err := json.Unmarshal(f.doc, &v); err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}

// Save writes the document back to its file through a temporary file. The
// file keeps its permission bits.
func (f *File) Save() error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// EscapeKey quotes gjson path syntax characters in a field name.
func EscapeKey(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
