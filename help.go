package main

import (
	"fmt"
	"io"
	"strings"
)

func executeHelp(w io.Writer, targ string) {

	if targ == "" {
		for _, c := range shellCommands {
			fmt.Fprintln(w, c.name)
		}

		return
	}

	switch strings.ToLower(targ) {
	default:
		fmt.Fprintf(w, "No help for %q\n", targ)

	case "actions":
		fmt.Fprintln(w, "List the actions recorded by the last run")

	case "bound":
		fmt.Fprintln(w, "Show or set the For loop upper bound" +
			" (0 disables the cap)")

	case "bye":
		fmt.Fprintln(w, "Exit from macroemu")

	case "dump":
		fmt.Fprintln(w, "Dump a variable's value, or a procedure's" +
			" statement tree")

	case "files":
		fmt.Fprintln(w, "List the files the last run opened, in handle" +
			" order")

	case "help":
		fmt.Fprintln(w, "List commands, or describe one")

	case "load":
		fmt.Fprintln(w, "Load a program from a YAML statement tree")

	case "report":
		fmt.Fprintln(w, "Print the full end of run report")

	case "run":
		fmt.Fprintln(w, "Emulate the current program, optionally naming" +
			" the entry points")

	case "stats":
		fmt.Fprintln(w, "Toggle printing CPU usage in the report")

	case "trace":
		fmt.Fprintln(w, "Toggle tracing of statement execution" +
			" or variable modification")
		fmt.Fprintln(w, "\ttrace exec")
		fmt.Fprintln(w, "\ttrace vars")
		fmt.Fprintln(w, "\ttrace <variable name>")

	case "vars":
		fmt.Fprintln(w, "List the global variables left by the last run")
	}
}
