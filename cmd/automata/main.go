// Command automata scans filenames with minimized DFAs and validates TCP
// handshakes with a pushdown automaton.
//
//	automata scan [-data file] [name...]
//	automata validate [-data file | -trace "SYN -> SYN-ACK -> ACK" | token...]
//	automata inspect -re pattern [-stage nfa|dfa|min] [-format dot|json|regex|stats]
//	automata inspect -pda [-format dot|json]
//	automata gen [-pkg name] [-o file]
//	automata serve [-addr :8080]
//	automata repl
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/config"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/ruleset"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type command struct {
	name  string
	usage string
	run   func(app *app, args []string) error
}

var commands = []command{
	{"scan", "classify filenames or score a filename dataset", runScan},
	{"validate", "validate packet traces or score a trace dataset", runValidate},
	{"inspect", "print a pattern's automata or the handshake PDA", runInspect},
	{"gen", "generate Go matchers from the rule set", runGen},
	{"serve", "start the websocket server", runServe},
	{"repl", "interactive filename, trace and pattern testing", runRepl},
}

// app carries what every subcommand shares.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
}

// flags registers the shared flags; values start from the environment.
func (a *app) flags(fs *flag.FlagSet) {
	fs.StringVar(&a.cfg.Rules, "rules", a.cfg.Rules, "rule file (default: built-in catalog)")
	fs.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "evaluation workers, 0 = one per CPU")
	fs.BoolVar(&a.cfg.FoldCase, "fold", a.cfg.FoldCase, "match case-insensitively")
	fs.BoolVar(&a.cfg.Heuristics, "heuristics", a.cfg.Heuristics, "run heuristics when no pattern matches")
}

func (a *app) ruleset() (*ruleset.Ruleset, error) {
	if a.cfg.Rules == "" {
		return ruleset.Default(), nil
	}
	return ruleset.Load(a.cfg.Rules)
}

func (a *app) detector() (*detect.Detector, error) {
	rs, err := a.ruleset()
	if err != nil {
		return nil, err
	}
	if !a.cfg.Heuristics {
		rs.Heuristics = nil
	}
	det, err := rs.Detector(detect.Options{FoldCase: a.cfg.FoldCase, Logger: a.logger})
	if err != nil && det == nil {
		return nil, err
	}
	if err != nil {
		a.logger.Warn("some patterns were skipped", "error", err)
	}
	return det, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: automata <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nenvironment: %s %s %s %s %s %s %s\n",
		config.EnvLogLevel, config.EnvLogFormat, config.EnvWorkers, config.EnvFoldCase,
		config.EnvHeuristics, config.EnvAddr, config.EnvRules)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	a := &app{cfg: cfg, logger: logger, out: os.Stdout}

	name := os.Args[1]
	switch name {
	case "-h", "-help", "--help", "help":
		usage()
		return
	case "version":
		fmt.Println(Version)
		return
	}
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(a, os.Args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
	usage()
	os.Exit(2)
}
