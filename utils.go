package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danswartzendruber/liner"
	"github.com/tklauser/go-sysconf"
	"golang.org/x/term"
)

//
// Value helpers.  A macro value is one of: nil (Empty), int, float64,
// string, bool, []any (an array or byte array), or a callable
//

//
// Numeric view of a value.  The result is int or float64.  Strings
// convert if they look like numbers, as VBA's implicit coercion does
//

func toNumber(v any) (any, bool) {

	switch v := v.(type) {
	case nil:
		return 0, true

	case int:
		return v, true

	case float64:
		return v, true

	case bool:
		if v {
			return -1, true
		}

		return 0, true

	case string:
		s := strings.TrimSpace(v)

		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}

		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}

		if strings.HasPrefix(strings.ToLower(s), "&h") {
			if i, err := strconv.ParseInt(s[2:], 16, 64); err == nil {
				return int(i), true
			}
		}
	}

	return nil, false
}

func numberToFloat(n any) float64 {

	if i, ok := n.(int); ok {
		return float64(i)
	}

	return n.(float64)
}

//
// Integer view of a value.  Only exact integers qualify, so 2.5 is not
// one but 2.0 is
//

func toInteger(v any) (int, bool) {

	switch v := v.(type) {
	case int:
		return v, true

	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) &&
			v >= math.MinInt64 && v <= math.MaxInt64 {
			return int(v), true
		}

	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}

	return 0, false
}

//
// Integer view that truncates toward zero, the way Case range bounds
// are converted
//

func truncInteger(v any) (int, bool) {

	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}

	if i, isInt := n.(int); isInt {
		return i, true
	}

	f := n.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 ||
		f > math.MaxInt64 {
		return 0, false
	}

	return int(f), true
}

func isTruthy(v any) bool {

	switch v := v.(type) {
	case nil:
		return false

	case bool:
		return v

	case int:
		return v != 0

	case float64:
		return v != 0

	case string:
		if strings.EqualFold(v, "true") {
			return true
		}

		if strings.EqualFold(v, "false") {
			return false
		}

		if n, ok := toNumber(v); ok {
			return numberToFloat(n) != 0
		}

		return v != ""

	case []any:
		return len(v) > 0
	}

	return true
}

func isNumeric(v any) bool {

	switch v.(type) {
	case int, float64:
		return true
	}

	return false
}

//
// Equality used by '=', Case lists and single Case values.  Numbers
// compare by value whatever their representation; strings exactly
//

func valuesEqual(a, b any) bool {

	if isNumeric(a) && isNumeric(b) {
		return numberToFloat(a) == numberToFloat(b)
	}

	switch a := a.(type) {
	case nil:
		return b == nil

	case string:
		bs, ok := b.(string)
		return ok && a == bs

	case bool:
		bb, ok := b.(bool)
		return ok && a == bb
	}

	return false
}

//
// Ordering for '<' and friends.  Numbers (or numeric strings against
// numbers) compare numerically, anything else by its string form
//

func compareValues(a, b any) int {

	if isNumeric(a) || isNumeric(b) {
		an, aok := toNumber(a)
		bn, bok := toNumber(b)

		if aok && bok {
			af, bf := numberToFloat(an), numberToFloat(bn)

			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(formatValue(a), formatValue(b))
}

//
// The string a value turns into when concatenated or printed
//

func formatValue(v any) string {

	switch v := v.(type) {
	case nil:
		return ""

	case string:
		return v

	case bool:
		if v {
			return "True"
		}

		return "False"

	case int:
		return strconv.Itoa(v)

	case float64:
		return strconv.FormatFloat(v, 'G', -1, 64)

	case []any:
		parts := make([]string, len(v))

		for i, item := range v {
			parts[i] = formatValue(item)
		}

		return strings.Join(parts, "")
	}

	return fmt.Sprintf("%v", v)
}

//
// The quoted form used in traces and the action log
//

func reprValue(v any) string {

	switch v := v.(type) {
	case nil:
		return "Empty"

	case string:
		return strconv.Quote(v)

	case []any:
		parts := make([]string, len(v))

		for i, item := range v {
			parts[i] = reprValue(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	return formatValue(v)
}

func truncate(s string, maxLen int) string {

	runes := []rune(s)

	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + "..."
}

func pluralize(str string, num int64) string {

	//
	// Oddity: 0 is considered plural
	//

	if num != 1 {
		return str + "s"
	}

	return str
}

func switchSetting(b bool) string {

	if b {
		return "ON"
	} else {
		return "OFF"
	}
}

//
// Terminal width for the report, or a sane default when we are not
// writing to a terminal
//

func outputWidth() int {

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 120
	}

	cols, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols < 40 {
		return 120
	}

	return cols
}

func isInteractive() bool {

	return term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))
}

func setupLiner() *liner.State {

	l := liner.NewLiner()

	l.SetMultiLineMode(false)

	return l
}

//
// Restore terminal state.  Safe to call more than once
//

func cleanupLiner() {

	if g.shellLiner != nil {
		g.shellLiner.Close()
		g.shellLiner = nil
	}
}

//
// CPU accounting, from /proc/self/stat.  Ticks are converted to whole
// seconds with the clock rate sysconf reports
//

func initClock(stats *runStats) {

	stats.elapsed = time.Now()
	stats.utime, stats.stime, _ = getCPUInfo()
}

func cpuUsageString(stats *runStats) string {

	elapsed := time.Since(stats.elapsed)

	utime, stime, err := getCPUInfo()
	if err != nil {
		return fmt.Sprintf("CPU Usage: elapsed = %s / unavailable (%v)",
			formatCPUTime(int64(elapsed.Seconds())), err)
	}

	return fmt.Sprintf("CPU Usage: elapsed = %s / user = %s / system = %s",
		formatCPUTime(int64(elapsed.Seconds())),
		formatCPUTime(utime-stats.utime), formatCPUTime(stime-stats.stime))
}

func formatCPUTime(t int64) string {

	var h, m int64

	if t >= 3600 {
		h = t / 3600
		t = t % 3600
	}

	if t >= 60 {
		m = t / 60
		t = t % 60
	}

	return fmt.Sprintf("%02d:%02d:%02d", h, m, t)
}

func getCPUInfo() (int64, int64, error) {

	clktck, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil {
		return 0, 0, err
	}

	if clktck <= 0 {
		return 0, 0, fmt.Errorf("bad clock rate %d", clktck)
	}

	contents, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, 0, err
	}

	//
	// The command name in field 2 may contain spaces, so count fields
	// from the closing paren
	//

	str := string(contents)
	if i := strings.LastIndexByte(str, ')'); i >= 0 {
		str = str[i+1:]
	}

	fields := strings.Fields(str)
	if len(fields) < 13 {
		return 0, 0, fmt.Errorf("short /proc/self/stat")
	}

	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return 0, 0, err
	}

	stime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return 0, 0, err
	}

	return utime / clktck, stime / clktck, nil
}

//
// Write a message and exit.  Make sure to call cleanupLiner, so the
// terminal state is sane
//

func crash(msg string) {

	cleanupLiner()

	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	os.Exit(1)
}
