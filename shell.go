package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/danswartzendruber/liner"
	"github.com/goforj/godump"
)

//
// The interactive shell.  Load a program, run it as often as you like
// with different entry points and settings, and poke at what the last
// run left behind
//

type shellCommand struct {
	name string
	fn   func(args []string)
}

var shellCommands []shellCommand

func init() {

	shellCommands = []shellCommand{
		{"actions", shellActions},
		{"bound", shellBound},
		{"bye", shellBye},
		{"dump", shellDump},
		{"files", shellFiles},
		{"help", shellHelp},
		{"load", shellLoad},
		{"report", shellReport},
		{"run", shellRun},
		{"stats", shellStats},
		{"trace", shellTrace},
		{"vars", shellVars},
	}
}

func runShell() {

	g.shellLiner = setupLiner()
	defer cleanupLiner()

	for !g.exiting {
		line, eof := readLine(g.shellLiner, myPrompt)
		if eof {
			break
		}

		call(func() {
			executeCommand(line)
		})
	}
}

//
// Read a line from the terminal, with editing and history.  ^C just
// abandons the line
//

func readLine(l *liner.State, prompt string) (string, bool) {

	s, err := l.Prompt(prompt)

	if err != nil {
		if err == liner.ErrPromptAborted {
			return "", false
		} else if err == io.EOF {
			return "", true
		} else {
			crash(fmt.Sprintf("readLine error: %q\n", err))
		}
	}

	if strings.TrimSpace(s) != "" {
		l.AppendHistory(s)
	}

	return s, false
}

func executeCommand(line string) {

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	name := strings.ToLower(fields[0])

	for _, c := range shellCommands {
		if c.name == name {
			c.fn(fields[1:])
			return
		}
	}

	fmt.Fprintf(g.out, "Unknown command %q, try help\n", fields[0])
}

func requireRun() bool {

	if g.ctx == nil {
		fmt.Fprintln(g.out, "Nothing has been run yet")
		return false
	}

	return true
}

func shellActions(args []string) {

	if requireRun() {
		printActions(g.out, g.ctx, outputWidth())
	}
}

func shellBound(args []string) {

	if len(args) == 0 {
		fmt.Fprintf(g.out, "Loop upper bound is %d\n", g.cfg.LoopUpperBound)
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(g.out, "Bad bound %q\n", args[0])
		return
	}

	g.cfg.LoopUpperBound = n
}

func shellBye(args []string) {

	g.exiting = true
}

//
// dump name: a variable from the last run, else a procedure of the
// loaded program
//

func shellDump(args []string) {

	if len(args) != 1 {
		fmt.Fprintln(g.out, "Usage: dump <name>")
		return
	}

	if g.ctx != nil {
		if v, ok := g.ctx.get(args[0]); ok {
			godump.Dump(v)
			return
		}
	}

	if g.prog != nil {
		if p := g.prog.findProcedure(args[0]); p != nil {
			godump.Dump(p)
			return
		}
	}

	fmt.Fprintf(g.out, "%q not found\n", args[0])
}

func shellFiles(args []string) {

	if requireRun() {
		printFiles(g.out, g.ctx, outputWidth())
	}
}

func shellHelp(args []string) {

	if len(args) == 0 {
		executeHelp(g.out, "")
	} else {
		executeHelp(g.out, args[0])
	}
}

func shellLoad(args []string) {

	if len(args) != 1 {
		fmt.Fprintln(g.out, "Usage: load <file>")
		return
	}

	if err := loadCommand(args[0]); err != nil {
		fmt.Fprintln(g.out, err)
	}
}

func shellReport(args []string) {

	if requireRun() {
		printReport(g.out, g.ctx, outputWidth())
	}
}

func shellRun(args []string) {

	if g.prog == nil {
		fmt.Fprintln(g.out, errNoProgram)
		return
	}

	entries := g.cfg.EntryPoints
	if len(args) > 0 {
		entries = args
	}

	g.ctx = runProgram(g.prog, entries)
	basicAssert(g.ctx != nil, "run produced no context")

	printReport(g.out, g.ctx, outputWidth())
}

func shellStats(args []string) {

	g.cfg.Stats = !g.cfg.Stats

	fmt.Fprintf(g.out, "Stats %s\n", switchSetting(g.cfg.Stats))
}

func shellTrace(args []string) {

	if len(args) != 1 {
		fmt.Fprintln(g.out, "Usage: trace exec|vars|<name>")
		return
	}

	switch strings.ToLower(args[0]) {
	case "exec":
		g.cfg.TraceExec = !g.cfg.TraceExec
		fmt.Fprintf(g.out, "Trace exec %s\n", switchSetting(g.cfg.TraceExec))

	case "vars":
		g.cfg.TraceVars = !g.cfg.TraceVars
		fmt.Fprintf(g.out, "Trace vars %s\n", switchSetting(g.cfg.TraceVars))

	default:
		key := symKey(args[0])
		g.tracedVars[key] = !g.tracedVars[key]
		fmt.Fprintf(g.out, "Trace %s %s\n", args[0],
			switchSetting(g.tracedVars[key]))
	}
}

func shellVars(args []string) {

	if !requireRun() {
		return
	}

	syms := g.ctx.globalSymbols()

	slices.SortFunc(syms, func(a, b *symtabNode) int {
		return strings.Compare(symKey(a.name), symKey(b.name))
	})

	for _, sym := range syms {
		if _, isFn := sym.value.(callable); isFn {
			continue
		}

		fmt.Fprintln(g.out, sym)
	}
}
