package dataset

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestLoadFilenames(t *testing.T) {
	entries, err := LoadFilenames("testdata/filenames.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries", len(entries))
	}
	if !entries[0].Malicious || entries[0].DetectedBy != "DFA" {
		t.Errorf("entry 0: %+v", entries[0])
	}
	if entries[2].Malicious {
		t.Error("missing is_malicious must mean benign")
	}
	want := []string{"invoice.pdf.exe", "holiday_photos.scr", "quarterly_report.pdf", "windows_update.iso"}
	if got := Filenames(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("Filenames = %v", got)
	}
}

func TestLoadTraces(t *testing.T) {
	traces, err := LoadTraces("testdata/traces.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 4 || traces[1].ID != "t2" || traces[1].Valid {
		t.Fatalf("got %+v", traces)
	}
	if !reflect.DeepEqual(traces[2].Sequence, []string{"SYN", "SYN-ACK", "ACK", "DATA", "FIN"}) {
		t.Errorf("sequence %v", traces[2].Sequence)
	}
}

func TestLoadCSV(t *testing.T) {
	traces, err := LoadTraces("testdata/traces.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 3 {
		t.Fatalf("got %d traces", len(traces))
	}
	if !reflect.DeepEqual(traces[0].Sequence, []string{"SYN", "SYN-ACK", "ACK"}) || !traces[0].Valid {
		t.Errorf("trace 0: %+v", traces[0])
	}
	if !reflect.DeepEqual(traces[1].Sequence, []string{"SYN", "ACK"}) || traces[1].Valid {
		t.Errorf("trace 1: %+v", traces[1])
	}
	if traces[2].ID != "line-4" || !traces[2].Valid || len(traces[2].Sequence) != 4 {
		t.Errorf("trace 2: %+v", traces[2])
	}

	files, err := LoadFilenames("testdata/filenames.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || !files[0].Malicious || files[1].Malicious || files[1].Category != "benign" {
		t.Fatalf("got %+v", files)
	}
}

func TestBadInput(t *testing.T) {
	_, err := ReadFilenames(strings.NewReader("{\"filename\":\"a\"}\n\n{bad json}\n"))
	var le *LineError
	if !errors.As(err, &le) || le.Line != 3 {
		t.Fatalf("err = %v", err)
	}
	_, err = ReadFilenames(strings.NewReader(`{"category":"x"}`))
	if !errors.As(err, &le) || le.Line != 1 {
		t.Fatalf("missing filename: err = %v", err)
	}
	for _, in := range []string{"", "\n\n  \n"} {
		if _, err := ReadTraces(strings.NewReader(in)); !errors.Is(err, ErrNoRecords) {
			t.Errorf("%q: err = %v", in, err)
		}
	}
	if _, err := ReadTracesCSV(strings.NewReader("trace_id,valid\n")); err == nil {
		t.Error("missing sequence column accepted")
	}
	if _, err := ReadTracesCSV(strings.NewReader("sequence\n")); !errors.Is(err, ErrNoRecords) {
		t.Errorf("header only: err = %v", err)
	}
	if _, err := ReadFilenamesCSV(strings.NewReader("filename,is_malicious\na,maybe\n")); !errors.As(err, &le) || le.Line != 2 {
		t.Errorf("bad flag: err = %v", err)
	}
	if _, err := LoadTraces("testdata/missing.jsonl"); err == nil {
		t.Error("missing file accepted")
	}
}
