package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/report"
)

var (
	good  = promptui.Styler(promptui.FGGreen)
	bad   = promptui.Styler(promptui.FGRed)
	info  = promptui.Styler(promptui.FGCyan)
	rule  = promptui.Styler(promptui.FGMagenta)
	modes = []string{"scan filenames", "validate traces", "test a pattern", "quit"}
)

func runRepl(a *app, args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	a.flags(fs)
	if err := parse(a, fs, args); err != nil {
		return err
	}
	det, err := a.detector()
	if err != nil {
		return err
	}
	machine := pda.New()

	for {
		sel := promptui.Select{Label: "Mode", Items: modes}
		i, _, err := sel.Run()
		if err != nil {
			return quiet(err)
		}
		switch i {
		case 0:
			err = loop("filename", func(s string) { scanOne(det, s) })
		case 1:
			err = loop("trace", func(s string) { traceOne(a, machine, s) })
		case 2:
			err = patternLoop()
		default:
			return nil
		}
		if err != nil {
			return quiet(err)
		}
	}
}

// quiet turns Ctrl-C and Ctrl-D into a clean exit.
func quiet(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return nil
	}
	return err
}

// loop prompts until an empty line, which returns to mode selection.
func loop(label string, handle func(string)) error {
	for {
		p := promptui.Prompt{Label: label}
		in, err := p.Run()
		if err != nil {
			return err
		}
		if strings.TrimSpace(in) == "" {
			return nil
		}
		handle(in)
		fmt.Println(rule(strings.Repeat("-", 30)))
	}
}

func scanOne(det *detect.Detector, name string) {
	v := det.Detect(name)
	if !v.Suspicious {
		fmt.Println(good("clean: " + name))
		return
	}
	fmt.Println(bad(fmt.Sprintf("suspicious: %s (%s, %s, %s)", name, v.Name, v.Severity, v.Source)))
}

func traceOne(a *app, machine *pda.Machine, text string) {
	tokens, err := splitTokens(text)
	if err != nil {
		fmt.Println(bad("tokenize: " + err.Error()))
		return
	}
	if err := report.Trace(a.out, machine.Trace(tokens)); err != nil {
		a.logger.Error("render trace", "error", err)
	}
	res := machine.Evaluate(tokens)
	msg := fmt.Sprintf("final state %s, max depth %d", res.Final, res.MaxDepth)
	if res.Accepted {
		fmt.Println(good("accepted: " + msg))
	} else {
		fmt.Println(bad("rejected: " + msg))
	}
}

func patternLoop() error {
	p := promptui.Prompt{
		Label: "pattern",
		Validate: func(s string) error {
			_, err := regexlib.Compile(s)
			return err
		},
	}
	expr, err := p.Run()
	if err != nil {
		return err
	}
	re := regexlib.MustCompile(expr)
	st := re.Stats()
	fmt.Println(info(fmt.Sprintf("NFA %d states, DFA %d, minimized %d", st.NFAStates, st.DFAStates, st.MinStates)))
	return loop("text", func(s string) {
		if re.Match(s) {
			fmt.Println(good("match"))
		} else {
			fmt.Println(bad("no match"))
		}
	})
}
