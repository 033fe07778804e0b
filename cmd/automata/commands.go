package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/codegen"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/dataset"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/eval"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/export"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/report"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/server"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/tracelex"
)

func parse(a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.cfg.Validate()
}

func runScan(a *app, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	a.flags(fs)
	data := fs.String("data", "", "labeled filename dataset (.jsonl or .csv)")
	missed := fs.Bool("missed", false, "list missed and falsely flagged names")
	if err := parse(a, fs, args); err != nil {
		return err
	}
	det, err := a.detector()
	if err != nil {
		return err
	}

	if *data == "" {
		if fs.NArg() == 0 {
			return errors.New("no filenames given (use -data for a dataset)")
		}
		return report.Verdicts(a.out, det.Scan(fs.Args()))
	}

	entries, err := dataset.LoadFilenames(*data)
	if err != nil {
		return err
	}
	m, _, err := eval.NewRunner(a.cfg.Workers, a.logger).Filenames(context.Background(), det, entries)
	if err != nil {
		return err
	}
	if err := report.DFAMetrics(a.out, m); err != nil {
		return err
	}
	if *missed {
		for _, n := range m.Missed {
			fmt.Fprintln(a.out, "missed:", n)
		}
		for _, n := range m.FalseAlarms {
			fmt.Fprintln(a.out, "false alarm:", n)
		}
	}
	return nil
}

func runValidate(a *app, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "evaluation workers, 0 = one per CPU")
	data := fs.String("data", "", "labeled trace dataset (.jsonl or .csv)")
	text := fs.String("trace", "", `trace text, e.g. "SYN -> SYN-ACK -> ACK"`)
	if err := parse(a, fs, args); err != nil {
		return err
	}
	machine := pda.New()

	if *data != "" {
		traces, err := dataset.LoadTraces(*data)
		if err != nil {
			return err
		}
		m, _, err := eval.NewRunner(a.cfg.Workers, a.logger).Traces(context.Background(), machine, traces)
		if err != nil {
			return err
		}
		if err := report.PDAMetrics(a.out, m); err != nil {
			return err
		}
		for _, id := range m.Failed {
			fmt.Fprintln(a.out, "failed:", id)
		}
		return nil
	}

	tokens := fs.Args()
	if *text != "" {
		var err error
		if tokens, err = tracelex.Tokenize(*text); err != nil {
			return err
		}
	}
	if len(tokens) == 0 {
		return errors.New("no trace given (use -trace, tokens or -data)")
	}
	if err := report.Trace(a.out, machine.Trace(tokens)); err != nil {
		return err
	}
	res := machine.Evaluate(tokens)
	verdict := "REJECTED"
	if res.Accepted {
		verdict = "ACCEPTED"
	}
	fmt.Fprintf(a.out, "%s (final %s, max depth %d)\n", verdict, res.Final, res.MaxDepth)
	return nil
}

func runInspect(a *app, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	a.flags(fs)
	pattern := fs.String("re", "", "pattern to inspect")
	stage := fs.String("stage", "min", "nfa, dfa, min or grouped")
	format := fs.String("format", "dot", "dot, json, regex or stats")
	search := fs.Bool("search", false, "compile with substring semantics")
	showPDA := fs.Bool("pda", false, "inspect the handshake PDA instead")
	out := fs.String("o", "-", "output file")
	if err := parse(a, fs, args); err != nil {
		return err
	}

	w := a.out
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if *showPDA {
		return export.Write(w, *format, pda.New())
	}

	var g any
	var dfa *automata.DFA
	if *stage == "grouped" {
		det, err := a.detector()
		if err != nil {
			return err
		}
		dfa = det.Grouped()
		if dfa == nil {
			return errors.New("rule set has no usable patterns")
		}
		g = dfa
	} else {
		if *pattern == "" {
			return errors.New("-re is required")
		}
		compile := regexlib.New
		if *search {
			compile = regexlib.NewSearch
		}
		re, err := compile(*pattern)
		if err != nil {
			return err
		}
		if *format == "stats" {
			return report.Stats(w, *pattern, re.Stats())
		}
		switch *stage {
		case "nfa":
			g = re.NFA()
		case "dfa":
			dfa = re.RawDFA()
			g = dfa
		case "min":
			dfa = re.DFA()
			g = dfa
		default:
			return fmt.Errorf("unknown stage %q", *stage)
		}
	}

	if *format == "regex" {
		if dfa == nil {
			return errors.New("regex output needs a DFA stage")
		}
		expr, ok := automata.ToRegexp(dfa)
		if !ok {
			expr = "(empty language)"
		}
		_, err := fmt.Fprintln(w, expr)
		return err
	}
	return export.Write(w, *format, g)
}

func runGen(a *app, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	a.flags(fs)
	pkg := fs.String("pkg", "matchers", "package name of the generated file")
	out := fs.String("o", "-", "output file")
	if err := parse(a, fs, args); err != nil {
		return err
	}
	det, err := a.detector()
	if err != nil {
		return err
	}
	w := a.out
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := codegen.Generate(w, *pkg, codegen.Entries(det.Patterns(), a.cfg.FoldCase)); err != nil {
		return err
	}
	if *out != "-" {
		a.logger.Info("matchers written", "file", *out, "patterns", len(det.Patterns()))
	}
	return nil
}

func runServe(a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	a.flags(fs)
	fs.StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "listen address")
	if err := parse(a, fs, args); err != nil {
		return err
	}
	det, err := a.detector()
	if err != nil {
		return err
	}
	srv := server.New(det, pda.New(), a.logger).HTTPServer(a.cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr, "version", Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// splitTokens accepts either trace text or bare tokens.
func splitTokens(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	return tracelex.Tokenize(line)
}
