package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/goforj/godump"
)

//
// Tricky: init is called under the hood by the GO runtime when
// we fire up, so there are no visible calls to it!
//

func init() {

	initErrors()

	g.tracedVars = make(map[string]bool)
}

func main() {

	//
	// Make sure we end up back in normal (cooked) terminal mode
	//

	defer cleanupLiner()

	o, err := parseOptions(os.Args)
	if err != nil {
		crash(fmt.Sprintf("%s: %v\n%s", progName, err, usageString))
	}

	if o.help {
		fmt.Println(usageString)
		return
	}

	g.cfg = o.cfg
	g.out = os.Stdout

	//
	// Run the signal handling code in a goroutine
	//

	go sigHdlr()

	if o.progFile != "" {
		if err := loadCommand(o.progFile); err != nil {
			crash(fmt.Sprintf("%s: %v", progName, err))
		}
	}

	if o.interactive || (o.progFile == "" && isInteractive()) {
		printVersionInfo()
		runShell()
		return
	}

	if g.prog == nil {
		crash(usageString)
	}

	g.ctx = runProgram(g.prog, g.cfg.EntryPoints)

	printReport(g.out, g.ctx, outputWidth())
}

func printVersionInfo() {

	fmt.Printf("macroemu version %s - built %s\n", VERSION, buildTimestampStr)
}

//
// Load a program and make it current
//

func loadCommand(filename string) error {

	level, _ := parseLogLevel(g.cfg.LogLevel)

	prog, err := loadProgramFile(filename, newLogger(os.Stderr, level))
	if err != nil {
		return err
	}

	g.prog = prog
	g.progFile = filename

	if g.cfg.TraceDump {
		for _, p := range prog.procedures {
			godump.Dump(p)
		}
	}

	return nil
}

//
// Emulate the program against a fresh context.  The emulator's log goes
// to standard error so it never mixes with the report
//

func runProgram(prog *program, entries []string) *Context {

	ctx := newContext(g.cfg, os.Stderr)

	for name, on := range g.tracedVars {
		ctx.setTraceVar(name, on)
	}

	if g.cfg.Stats {
		initClock(&ctx.stats)
	}

	n := emulate(ctx, prog, entries)

	ctx.log.infof("Ran %d %s of %s", n, pluralize("procedure", int64(n)),
		filepath.Base(g.progFile))

	return ctx
}

func writeGoroutineStacks() {

	name := "goroutines-stacks"
	mode := (os.O_CREATE | os.O_WRONLY)

	dumpFile, err := os.OpenFile(name, mode, 0644)
	if err != nil {
		iErr := err.(*os.PathError)
		fmt.Fprintf(os.Stderr, "Unable to open %s (%s)\n",
			name, iErr.Err.Error())
		return
	}

	_ = pprof.Lookup("goroutine").WriteTo(dumpFile, 2)

	m := fmt.Sprintf("Dumping goroutine stacks to %v and exiting", name)

	crash(m)
}

//
// Emulation is never interrupted part way: a run either finishes or
// the process goes away
//

func sigHdlr() {

	ch := make(chan os.Signal, 1)

	signal.Ignore(syscall.SIGTSTP)

	signal.Notify(ch, syscall.SIGQUIT)
	signal.Notify(ch, syscall.SIGINT)

	for {
		sig := <-ch

		switch sig {

		default:
			crash(fmt.Sprintf("Unexpected signal %d", sig))

		case syscall.SIGQUIT:
			writeGoroutineStacks() // does not return

		case syscall.SIGINT:
			crash("Interrupted")
		}
	}
}

//
// Wrapper routine for a shell command.  We need this so that panic
// calls can be caught and decoded before returning to the prompt
//

func call(f func()) {

	defer func() {
		err := recover()
		if err != nil {
			decodePanic(err)
		}
	}()

	f()
}

func decodePanic(e any) {

	switch e := e.(type) {
	default:
		fmt.Fprintf(os.Stderr, "%v\n", e)

		debug.PrintStack()

	case *basicErrorInfo:
		fmt.Fprintf(os.Stderr, "%q at %s line %d\n", e.msg,
			filepath.Base(e.file), e.line)

		debug.PrintStack()

	case *runtimeErrorInfo:
		fmt.Fprintln(os.Stderr, e.msg)
	}
}

//
// Front end assertions.  The emulator proper never calls these; its
// faults stop at the statement boundary
//

func basicAssert(chk bool, msg string) {

	if !chk {
		fatalError(msg)
	}
}

//
// We find filename and line number of our caller, and stuff those
// into the basicErrorInfo structure before calling panic
//

func fatalError(msg string) {

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		crash("Unable to find caller frame!\n")
	}

	msg = strings.TrimRight(msg, "\n")

	panic(&basicErrorInfo{msg, file, line})
}
