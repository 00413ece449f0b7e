// internal/storage/jsonfile.go
// Package storage holds the durable repositories behind the result store.
package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/edgebench/internal/benchmark"
)

const documentVersion = 1

// ErrNotFound is returned when a delete targets a position that does not exist.
var ErrNotFound = errors.New("result not found")

//go:embed schema.json
var resultsSchema string

var schemaLoader = gojsonschema.NewStringLoader(resultsSchema)

type document struct {
	Version int                `json:"version"`
	Results []benchmark.Result `json:"results"`
}

// JSONFile keeps every result in one JSON document, newest first.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile returns a repository backed by the document at path.
// The file is created on the first write.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path is the location of the backing document.
func (f *JSONFile) Path() string { return f.path }

// GetAll returns every stored result, newest first.
func (f *JSONFile) GetAll() ([]benchmark.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return doc.Results, nil
}

// Append stores result as the newest entry.
func (f *JSONFile) Append(result benchmark.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Results = append([]benchmark.Result{result}, doc.Results...)
	return f.save(doc)
}

// DeleteAt removes the entry at index in GetAll order.
func (f *JSONFile) DeleteAt(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(doc.Results) {
		return fmt.Errorf("delete index %d of %d: %w", index, len(doc.Results), ErrNotFound)
	}
	doc.Results = append(doc.Results[:index:index], doc.Results[index+1:]...)
	return f.save(doc)
}

// Close is a no-op; every write is flushed when it returns.
func (f *JSONFile) Close() error { return nil }

func (f *JSONFile) load() (document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return document{Version: documentVersion}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read results file %s: %w", f.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return document{Version: documentVersion}, nil
	}
	if err := validateDocument(data); err != nil {
		return document{}, fmt.Errorf("results file %s: %w", f.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("decode results file %s: %w", f.path, err)
	}
	return doc, nil
}

// save writes doc to a temporary file next to the target and renames it into place.
func (f *JSONFile) save(doc document) error {
	doc.Version = documentVersion
	if doc.Results == nil {
		doc.Results = []benchmark.Result{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp results file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp results file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp results file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace results file %s: %w", f.path, err)
	}
	return nil
}

func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("document failed validation: %s", strings.Join(details, "; "))
}
