package main

import (
	"io"
	"time"

	"github.com/danswartzendruber/avl"
	"github.com/danswartzendruber/liner"
)

//
// Constants
//

const VERSION = "0.4.0"

const progName = "macroemu"

const myPrompt = "macroemu> "

//
// Default cap on the end value of a FOR loop.  Malicious macros like
// to spin in huge loops to time out sandboxes
//

const defaultLoopUpperBound = 500000

//
// Procedure calls nest on the Go stack, so runaway recursion has to
// be stopped before the runtime does it for us
//

const callDepthMax = 1000

//
// Indexed assignment grows arrays and strings to fit.  Past this it is
// an error instead
//

const maxArrayLen = 16 * 1024 * 1024

//
// YAML aliases can make a statement tree that contains itself, or one
// that is tiny on disk and enormous once expanded.  The loader gives
// up past these
//

const (
	maxLoadDepth = 1000
	maxLoadNodes = 1 << 20
)

//
// Action descriptions and call argument lists get truncated in the
// log at this many characters
//

const maxLogArgLen = 80

//
// MsgBox returns vbOK
//

const msgBoxOK = 1

const colorRedSeq = "\033[31m"
const colorYellowSeq = "\033[33m"
const colorResetSeq = "\033[0m"

//
// Declared type names the coercion and Dim code care about
//

const (
	typeString    = "String"
	typeByteArray = "Byte Array"
	arraySuffix   = " Array"
)

//
// Action categories recorded in the action log
//

const (
	actDisplayMessage = "Display Message"
	actMethodCall     = "Object.Method Call"
	actDownloadURL    = "Download URL"
	actWriteFile      = "Write File"
	actRunCommand     = "Run Command"
	actExecuteCommand = "Execute Command"
	actCreateObject   = "CreateObject"
)

//
// Statement kinds.  The set is closed: executeStmt switches over the
// concrete statement types, and kindNames must stay in step
//

type stmtKind int

const (
	kindUnknown stmtKind = iota
	kindAttribute
	kindOption
	kindDim
	kindGlobalVar
	kindLet
	kindPropertyAssign
	kindFor
	kindForEach
	kindWhile
	kindDo
	kindSelect
	kindIf
	kindIfMacro
	kindCall
	kindExitFor
	kindExitWhile
	kindExitFunction
	kindRedim
	kindWith
	kindGoto
	kindLabel
	kindOnError
	kindFileOpen
	kindPrint
	kindExternalFunction
)

var kindNames = []string{"Unknown", "Attribute", "Option", "Dim", "GlobalVar",
	"Let", "PropertyAssign", "For", "ForEach", "While", "Do", "Select", "If",
	"IfMacro", "Call", "ExitFor", "ExitWhile", "ExitFunction", "Redim", "With",
	"Goto", "Label", "OnError", "FileOpen", "Print", "ExternalFunction"}

//
// Case clause shapes.  Computed once when the clause is built
//

type caseKind int

const (
	caseSingle caseKind = iota
	caseRange
	caseSet
	caseElse
)

//
// Type definitions
//

type srcSpan struct {
	line   int
	column int
}

type symtabNode struct {
	name  string
	vType string
	value any
}

type frame map[string]*symtabNode

type action struct {
	category    string
	description string
	source      string
}

//
// One entry in the open-file table.  The AVL node is embedded so the
// table can be walked in handle order
//

type openFile struct {
	avl      avl.AvlNode
	handle   int
	name     string
	mode     string
	access   string
	contents []any
}

type runStats struct {
	elapsed       time.Time
	utime         int64
	stime         int64
	numStatements int64
	numErrors     int64
	errorsByCode  map[int16]int64
}

type config struct {
	LoopUpperBound int      `yaml:"loop_upper_bound"`
	LogLevel       string   `yaml:"log_level"`
	EntryPoints    []string `yaml:"entry_points"`
	TraceExec      bool     `yaml:"trace_exec"`
	TraceVars      bool     `yaml:"trace_vars"`
	TraceDump      bool     `yaml:"trace_dump"`
	Stats          bool     `yaml:"stats"`
}

//
// The execution context for one emulation run.  Everything a statement
// can observe or change lives here, and it is passed explicitly down the
// evaluation call chain
//

type Context struct {
	globals    frame
	frames     []frame
	loopStack  []bool
	withPrefix string
	openFiles  *avl.AvlNode
	exitFunc   bool
	callDepth  int
	unwinding  bool
	actions    []action
	tracedVars map[string]bool
	cfg        config
	log        *logger
	stats      runStats
}

type program struct {
	module       string
	declarations []statement
	procedures   []*procedure
}

type runtimeErrorInfo struct {
	msg  string
	code int16
}

type loadError struct {
	line   int
	column int
	msg    string
}

type basicErrorInfo struct {
	msg  string
	file string
	line int
}

//
// Global variables
//

var buildTimestampStr string

//
// Front end state.  None of this is visible to the emulator proper,
// which only ever sees a *Context
//

var g struct {
	cfg        config
	prog       *program
	progFile   string
	ctx        *Context
	shellLiner *liner.State
	out        io.Writer
	tracedVars map[string]bool
	exiting    bool
}

//
// Names of the document event handlers Office runs on its own.  These
// are the default entry points
//

var autoExecNames = []string{"AutoOpen", "Auto_Open", "AutoExec",
	"Document_Open", "DocumentOpen", "Workbook_Open", "Document_Close",
	"AutoClose", "Auto_Close"}

//
// Numeric declared types whose Dim value starts at 0
//

var zeroTypes = []string{"Long", "Integer", "Byte", "Double", "Single",
	"Currency", "LongLong"}
