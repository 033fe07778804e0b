// Package detect flags suspicious filenames with a fixed, ordered set of
// minimized search automata, one per named pattern.
package detect

import (
	"fmt"
	"strings"
)

// PatternID identifies a pattern. Names are display only.
type PatternID int

const (
	NoPattern PatternID = iota
	Executable
	Screensaver
	BatchFile
	VBScript
	MimicLegitimate
	DeceptivePassword
	DeceptiveStealer
	DeceptiveSetup
	DeceptivePatch

	// FirstCustom is the id of the first pattern defined outside the
	// built-in catalog; later ones follow in order.
	FirstCustom
)

var builtinNames = map[PatternID]string{
	NoPattern:         "none",
	Executable:        "executable",
	Screensaver:       "screensaver",
	BatchFile:         "batch_file",
	VBScript:          "vbscript",
	MimicLegitimate:   "mimic_legitimate",
	DeceptivePassword: "deceptive_password",
	DeceptiveStealer:  "deceptive_stealer",
	DeceptiveSetup:    "deceptive_setup",
	DeceptivePatch:    "deceptive_patch",
}

func (id PatternID) String() string {
	if n, ok := builtinNames[id]; ok {
		return n
	}
	return fmt.Sprintf("custom_%d", int(id-FirstCustom))
}

// Builtin returns the catalog id registered under name.
func Builtin(name string) (PatternID, bool) {
	for id, n := range builtinNames {
		if id != NoPattern && n == name {
			return id, true
		}
	}
	return NoPattern, false
}

// Severity ranks how dangerous a match is.
type Severity int

const (
	Low Severity = iota
	Medium
	High
)

func (s Severity) String() string {
	switch s {
	case High:
		return "high"
	case Medium:
		return "medium"
	}
	return "low"
}

// ParseSeverity reads "low", "medium" or "high" in any case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return Low, fmt.Errorf("unknown severity %q", s)
}

// Pattern is one named expression of the pattern dialect.
type Pattern struct {
	ID       PatternID
	Name     string
	Expr     string
	Severity Severity
}

// DefaultPatterns is the built-in catalog in detection order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{ID: Executable, Name: Executable.String(), Expr: "exe", Severity: High},
		{ID: Screensaver, Name: Screensaver.String(), Expr: "scr", Severity: High},
		{ID: BatchFile, Name: BatchFile.String(), Expr: "bat", Severity: Medium},
		{ID: VBScript, Name: VBScript.String(), Expr: "vbs", Severity: Medium},
		{ID: MimicLegitimate, Name: MimicLegitimate.String(), Expr: "update", Severity: Low},
		{ID: DeceptivePassword, Name: DeceptivePassword.String(), Expr: "password", Severity: Low},
		{ID: DeceptiveStealer, Name: DeceptiveStealer.String(), Expr: "stealer", Severity: Low},
		{ID: DeceptiveSetup, Name: DeceptiveSetup.String(), Expr: "setup", Severity: Low},
		{ID: DeceptivePatch, Name: DeceptivePatch.String(), Expr: "patch", Severity: Low},
	}
}
