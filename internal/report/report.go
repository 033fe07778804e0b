// Package report renders evaluation results and automaton statistics as
// plain-text tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/eval"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
)

func pct(f float64) string { return fmt.Sprintf("%.2f%%", f*100) }

func render(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// DFAMetrics writes the confusion matrix, rates and per-pattern hits.
func DFAMetrics(w io.Writer, m eval.DFAMetrics) error {
	rows := [][]string{
		{"total", strconv.Itoa(m.Total)},
		{"true positives", strconv.Itoa(m.TP)},
		{"false positives", strconv.Itoa(m.FP)},
		{"false negatives", strconv.Itoa(m.FN)},
		{"true negatives", strconv.Itoa(m.TN)},
		{"accuracy", pct(m.Accuracy)},
		{"precision", pct(m.Precision)},
		{"recall", pct(m.Recall)},
		{"patterns", strconv.Itoa(m.Patterns)},
		{"states before grouping", strconv.Itoa(m.StatesBefore)},
		{"states after grouping", strconv.Itoa(m.StatesAfter)},
		{"heuristic hits", strconv.Itoa(m.HeuristicHits)},
		{"elapsed", m.Elapsed.String()},
	}
	if err := render(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}
	if len(m.PerPattern) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.PerPattern))
	for name := range m.PerPattern {
		names = append(names, name)
	}
	sort.Strings(names)
	hits := make([][]string, 0, len(names))
	for _, name := range names {
		hits = append(hits, []string{name, strconv.Itoa(m.PerPattern[name])})
	}
	return render(w, []string{"Pattern", "Hits"}, hits)
}

// PDAMetrics writes handshake validation scores.
func PDAMetrics(w io.Writer, m eval.PDAMetrics) error {
	rows := [][]string{
		{"total", strconv.Itoa(m.Total)},
		{"correctly accepted", strconv.Itoa(m.CorrectAccept)},
		{"correctly rejected", strconv.Itoa(m.CorrectReject)},
		{"false accepts", strconv.Itoa(m.FalseAccept)},
		{"false rejects", strconv.Itoa(m.FalseReject)},
		{"accuracy", pct(m.Accuracy)},
		{"avg max stack depth", fmt.Sprintf("%.2f", m.AvgMaxDepth)},
		{"max stack depth", strconv.Itoa(m.MaxDepth)},
		{"elapsed", m.Elapsed.String()},
	}
	return render(w, []string{"Metric", "Value"}, rows)
}

// Patterns writes automaton sizes at every pipeline stage for each pattern.
func Patterns(w io.Writer, patterns []detect.Compiled) error {
	rows := make([][]string, 0, len(patterns))
	for _, c := range patterns {
		st := c.Regex.Stats()
		rows = append(rows, []string{
			c.Name,
			c.Expr,
			c.Severity.String(),
			strconv.Itoa(st.NFAStates),
			strconv.Itoa(st.DFAStates),
			strconv.Itoa(st.MinStates),
			strconv.Itoa(st.MinTransitions),
		})
	}
	return render(w, []string{"Name", "Pattern", "Severity", "NFA", "DFA", "Min", "Edges"}, rows)
}

// Verdicts writes one row per scanned filename.
func Verdicts(w io.Writer, verdicts []detect.Verdict) error {
	rows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		status, match, sev := "clean", "-", "-"
		if v.Suspicious {
			status, sev = "suspicious", v.Severity.String()
			match = v.Name
			if v.Source == detect.SourceHeuristic {
				match = v.Rule
			}
		}
		rows = append(rows, []string{v.Filename, status, match, sev, v.Source.String()})
	}
	return render(w, []string{"Filename", "Verdict", "Match", "Severity", "Stage"}, rows)
}

// Trace writes one row per PDA step.
func Trace(w io.Writer, steps []pda.Step) error {
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Token,
			s.Before.String(),
			s.After.String(),
			strconv.Itoa(s.Depth),
			s.Op,
		})
	}
	return render(w, []string{"#", "Token", "From", "To", "Depth", "Operation"}, rows)
}

// Stats writes automaton sizes along the pipeline for one pattern.
func Stats(w io.Writer, pattern string, st regexlib.Stats) error {
	rows := [][]string{
		{"pattern", pattern},
		{"alphabet", strconv.Itoa(st.AlphabetSize)},
		{"nfa states", strconv.Itoa(st.NFAStates)},
		{"nfa transitions", strconv.Itoa(st.NFATransitions)},
		{"dfa states", strconv.Itoa(st.DFAStates)},
		{"minimized states", strconv.Itoa(st.MinStates)},
		{"minimized transitions", strconv.Itoa(st.MinTransitions)},
		{"refinement rounds", strconv.Itoa(st.Rounds)},
		{"splits", strconv.Itoa(st.Splits)},
	}
	return render(w, []string{"Stage", "Size"}, rows)
}
