package main

import (
	"errors"
	"fmt"
)

//
// Manifest constants for the emulator's error messages.  They fall
// into three groups, and the group decides nothing about recovery:
// every one of them is caught at the statement boundary, logged, and
// the statement becomes a no-op
//
// 1. Expected-absent: a name that does not resolve.  Procedure lookups
//    run through a fallback chain before this is reported
//
// 2. Type-mismatch: a value whose shape does not suit the statement.
//    Callers substitute a safe default where one exists
//
// 3. Malformed: a construct the loader or the engine cannot make sense
//    of.  The construct is skipped
//

const (
	EPROCNOTFOUND   = "Procedure %q not found"
	EARRAYNOTFOUND  = "Cannot find array variable %q"
	EFILENOTOPEN    = "File handle %d is not open"
	EUNKNOWNEXTERN  = "Unknown external function %s from DLL %s"
	ETYPEMISMATCH   = "Type mismatch: %s"
	EBADINDEX       = "Invalid index %v for %q"
	EBADHANDLE      = "Invalid file handle %v"
	EBADCHAR        = "%v cannot be converted to a character"
	EUNHANDLEDVALUE = "Unhandled value type %T for array update of %q"
	EUNHANDLEDPRINT = "Unhandled data type %T to Print"
	EDIVISIONBYZERO = "Division by 0"
	EBADOPERATOR    = "Unknown operator %q"
	EBADARGCOUNT    = "Wrong number of arguments to %s"
	EEXITNOLOOP     = "%s outside of any loop"
	ECALLDEPTH      = "Maximum call depth exceeded calling %q"
	EBADIFPIECE     = "If part has wrong shape: %s"
	EBADSTMT        = "Cannot load statement: %s"
	EBADEXPR        = "Cannot load expression: %s"
	EENGINEFAULT    = "Engine fault: %v"
)

//
// Error numbers.  Each recovered error is logged with its number and
// counted under it for the report.  Keep them stable so logs stay
// greppable across runs
//

var errorMap = map[string]int16{
	EPROCNOTFOUND:   2,
	EARRAYNOTFOUND:  3,
	EFILENOTOPEN:    4,
	EUNKNOWNEXTERN:  6,
	ETYPEMISMATCH:   20,
	EBADINDEX:       21,
	EBADHANDLE:      22,
	EBADCHAR:        23,
	EUNHANDLEDVALUE: 24,
	EUNHANDLEDPRINT: 25,
	EDIVISIONBYZERO: 26,
	EBADARGCOUNT:    27,
	EBADOPERATOR:    40,
	EEXITNOLOOP:     41,
	ECALLDEPTH:      42,
	EBADIFPIECE:     43,
	EBADSTMT:        44,
	EBADEXPR:        45,
	EENGINEFAULT:    60,
}

var errorMapRev map[int16]string

var errNoProgram = errors.New("no program loaded")

func initErrors() {

	errorMapRev = make(map[int16]string)

	for k, v := range errorMap {
		errorMapRev[v] = k
	}
}

//
// We return -1 on a failed lookup, same as an engine fault nobody
// bothered to number
//

func getErrorNo(msg string) int16 {

	err, ok := errorMap[msg]
	if ok {
		return err
	} else {
		return -1
	}
}

//
// The message template behind an error number, for the report
//

func getErrorMsg(code int16) string {

	msg, ok := errorMapRev[code]
	if ok {
		return msg
	} else {
		return "Unnumbered error"
	}
}

func (re *runtimeErrorInfo) Error() string {

	return re.msg
}

func (le *loadError) Error() string {

	return fmt.Sprintf("line %d column %d: %s", le.line, le.column, le.msg)
}

//
// A couple of handy 'assert' functions.  runtimeCheck and runtimeError
// unwind to the nearest statement boundary (see executeStmt), never
// further
//

func runtimeCheck(chk bool, msg string, args ...any) {

	if !chk {
		runtimeError(msg, args...)
	}
}

func runtimeError(msg string, args ...any) {

	panic(&runtimeErrorInfo{msg: fmt.Sprintf(msg, args...),
		code: getErrorNo(msg)})
}

//
// Run f, turning a runtime error into an error return.  Anything else
// keeps unwinding
//

func catchRuntimeError(f func()) (err error) {

	defer func() {
		if e := recover(); e != nil {
			re, ok := e.(*runtimeErrorInfo)
			if !ok {
				panic(e)
			}

			err = re
		}
	}()

	f()

	return nil
}
