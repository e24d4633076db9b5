package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

//
// The end of run report: what the macro tried to do, what it wrote,
// and how much work that took
//

func printReport(w io.Writer, ctx *Context, width int) {

	printActions(w, ctx, width)

	fmt.Fprintln(w)

	printFiles(w, ctx, width)

	fmt.Fprintln(w)

	fmt.Fprintf(w, "%d %s executed, %d %s recovered\n",
		ctx.stats.numStatements, pluralize("statement", ctx.stats.numStatements),
		ctx.stats.numErrors, pluralize("error", ctx.stats.numErrors))

	printErrorCounts(w, ctx)

	if ctx.cfg.Stats {
		fmt.Fprintln(w, cpuUsageString(&ctx.stats))
	}
}

func printActions(w io.Writer, ctx *Context, width int) {

	fmt.Fprintf(w, "Recorded Actions (%d):\n", len(ctx.actions))

	if len(ctx.actions) == 0 {
		return
	}

	catWidth := len("Action")
	srcWidth := len("Description")

	for _, a := range ctx.actions {
		catWidth = max(catWidth, len(a.category))
		srcWidth = max(srcWidth, len(a.source))
	}

	paramWidth := max(width-catWidth-srcWidth-10, 20)

	rule := "+" + strings.Repeat("-", catWidth+2) + "+" +
		strings.Repeat("-", paramWidth+2) + "+" +
		strings.Repeat("-", srcWidth+2) + "+"

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "| %-*s | %-*s | %-*s |\n", catWidth, "Action", paramWidth,
		"Parameters", srcWidth, "Description")
	fmt.Fprintln(w, rule)

	for _, a := range ctx.actions {
		fmt.Fprintf(w, "| %-*s | %-*s | %-*s |\n", catWidth, a.category,
			paramWidth, fitColumn(a.description, paramWidth), srcWidth,
			a.source)
	}

	fmt.Fprintln(w, rule)
}

func printFiles(w io.Writer, ctx *Context, width int) {

	files := ctx.allFiles()

	fmt.Fprintf(w, "Open Files (%d):\n", len(files))

	for _, of := range files {
		fmt.Fprintf(w, "  #%d %q (%s) %d %s: %s\n", of.handle, of.name,
			of.mode, len(of.contents),
			pluralize("byte", int64(len(of.contents))),
			of.preview(max(width-40, 16)))
	}
}

//
// One line per error number seen, lowest number first
//

func printErrorCounts(w io.Writer, ctx *Context) {

	codes := make([]int16, 0, len(ctx.stats.errorsByCode))

	for code := range ctx.stats.errorsByCode {
		codes = append(codes, code)
	}

	slices.Sort(codes)

	for _, code := range codes {
		fmt.Fprintf(w, "  error %3d x %d: %s\n", code,
			ctx.stats.errorsByCode[code], getErrorMsg(code))
	}
}

//
// Squash a description into a table cell.  Newlines would wreck the
// table
//

func fitColumn(s string, width int) string {

	s = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s)

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width <= 3 {
		return string(runes[:width])
	}

	return string(runes[:width-3]) + "..."
}
