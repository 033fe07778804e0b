// Package dataset loads labeled filenames and packet traces from JSON Lines
// and CSV files.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoRecords is returned when an input holds no records at all.
var ErrNoRecords = errors.New("dataset: no records")

// FilenameEntry is one labeled filename. A missing is_malicious field
// means benign.
type FilenameEntry struct {
	Filename   string `json:"filename"`
	Technique  string `json:"technique,omitempty"`
	Category   string `json:"category,omitempty"`
	DetectedBy string `json:"detected_by,omitempty"`
	Malicious  bool   `json:"is_malicious"`
}

// TCPTrace is one labeled packet sequence.
type TCPTrace struct {
	ID          string   `json:"trace_id"`
	Sequence    []string `json:"sequence"`
	Valid       bool     `json:"valid"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// LineError locates a record that could not be decoded.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string { return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// readJSONL decodes one value per non-blank line; check, when set, vets
// every decoded value.
func readJSONL[T any](r io.Reader, source string, check func(T) error) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var out []T
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, &LineError{Source: source, Line: line, Err: err}
		}
		if check != nil {
			if err := check(v); err != nil {
				return nil, &LineError{Source: source, Line: line, Err: err}
			}
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoRecords)
	}
	return out, nil
}

// ReadFilenames decodes JSON Lines filename entries from r.
func ReadFilenames(r io.Reader) ([]FilenameEntry, error) {
	return readJSONL(r, "filenames", func(e FilenameEntry) error {
		if e.Filename == "" {
			return errors.New("missing filename")
		}
		return nil
	})
}

// ReadTraces decodes JSON Lines packet traces from r.
func ReadTraces(r io.Reader) ([]TCPTrace, error) {
	return readJSONL[TCPTrace](r, "traces", nil)
}

// LoadFilenames reads filename entries from path; .csv selects the CSV
// reader, anything else JSON Lines.
func LoadFilenames(path string) ([]FilenameEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if isCSV(path) {
		return ReadFilenamesCSV(f)
	}
	return ReadFilenames(f)
}

// LoadTraces reads packet traces from path; .csv selects the CSV reader,
// anything else JSON Lines.
func LoadTraces(path string) ([]TCPTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if isCSV(path) {
		return ReadTracesCSV(f)
	}
	return ReadTraces(f)
}

func isCSV(path string) bool { return strings.EqualFold(filepath.Ext(path), ".csv") }

// Filenames returns the names of entries in order.
func Filenames(entries []FilenameEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Filename
	}
	return out
}
