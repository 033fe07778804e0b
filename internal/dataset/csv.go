package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/tracelex"
)

// header maps lower-cased column names to their index.
type header map[string]int

func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) flag(rec []string, col string) (bool, error) {
	v := h.get(rec, col)
	if v == "" {
		return false, nil
	}
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func readCSV(r io.Reader, source string, required string, row func(h header, rec []string, line int) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", source, ErrNoRecords)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	h := header{}
	for i, c := range cols {
		h[strings.ToLower(strings.TrimSpace(c))] = i
	}
	if _, ok := h[required]; !ok {
		return fmt.Errorf("%s: missing %q column", source, required)
	}
	n := 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &LineError{Source: source, Line: line, Err: err}
		}
		if err := row(h, rec, line); err != nil {
			return &LineError{Source: source, Line: line, Err: err}
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", source, ErrNoRecords)
	}
	return nil
}

// ReadFilenamesCSV reads a header-driven CSV with at least a filename
// column; technique, category, detected_by and is_malicious are optional.
func ReadFilenamesCSV(r io.Reader) ([]FilenameEntry, error) {
	var out []FilenameEntry
	err := readCSV(r, "filenames.csv", "filename", func(h header, rec []string, _ int) error {
		mal, err := h.flag(rec, "is_malicious")
		if err != nil {
			return err
		}
		e := FilenameEntry{
			Filename:   h.get(rec, "filename"),
			Technique:  h.get(rec, "technique"),
			Category:   h.get(rec, "category"),
			DetectedBy: h.get(rec, "detected_by"),
			Malicious:  mal,
		}
		if e.Filename == "" {
			return errors.New("missing filename")
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTracesCSV reads a header-driven CSV with a sequence column holding
// trace text ("SYN -> SYN-ACK -> ACK"); trace_id, valid, description and
// category are optional.
func ReadTracesCSV(r io.Reader) ([]TCPTrace, error) {
	var out []TCPTrace
	err := readCSV(r, "traces.csv", "sequence", func(h header, rec []string, line int) error {
		seq, err := tracelex.Tokenize(h.get(rec, "sequence"))
		if err != nil {
			return err
		}
		valid, err := h.flag(rec, "valid")
		if err != nil {
			return err
		}
		id := h.get(rec, "trace_id")
		if id == "" {
			id = "line-" + strconv.Itoa(line)
		}
		out = append(out, TCPTrace{
			ID:          id,
			Sequence:    seq,
			Valid:       valid,
			Description: h.get(rec, "description"),
			Category:    h.get(rec, "category"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
