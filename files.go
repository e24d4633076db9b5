package main

import (
	"strconv"
	"strings"

	"github.com/danswartzendruber/avl"
)

//
// The open-file table.  Open adds (or replaces) an entry keyed by the
// file handle, Print appends bytes to it.  Nothing ever touches the
// real filesystem.  The entries live in an AVL tree so the report can
// walk them in handle order
//

func (ctx *Context) initFileTable() {

	ctx.openFiles = nil
}

func cmpHandleKey(key any, node any) int {

	return cmpInts(key.(int), node.(*openFile).handle)
}

func cmpHandleNode(node1, node2 any) int {

	return cmpInts(node1.(*openFile).handle, node2.(*openFile).handle)
}

func cmpInts(a, b int) int {

	if a < b {
		return -1
	} else if a > b {
		return 1
	} else {
		return 0
	}
}

//
// Opening a handle that is already open starts it over, the same as
// the macro closing and reopening it
//

func (ctx *Context) openFile(handle int, name, mode, access string) *openFile {

	if old := ctx.lookupFile(handle); old != nil {
		ctx.log.debugf("Reopening file handle %d (was %q)", handle, old.name)
		avl.AvlTreeRemove(&ctx.openFiles, &old.avl)
	}

	of := &openFile{handle: handle, name: name, mode: mode, access: access,
		contents: []any{}}

	if p := avl.AvlTreeInsert(&ctx.openFiles, &of.avl, of,
		cmpHandleNode); p != nil {
		runtimeError(EENGINEFAULT, "duplicate file handle "+strconv.Itoa(handle))
	}

	return of
}

func (ctx *Context) lookupFile(handle int) *openFile {

	p := avl.AvlTreeLookup(ctx.openFiles, handle, cmpHandleKey)
	if p != nil {
		return p.(*openFile)
	} else {
		return nil
	}
}

func (ctx *Context) firstFile() *openFile {

	p := avl.AvlTreeFirstInOrder(ctx.openFiles)
	if p != nil {
		return p.(*openFile)
	} else {
		return nil
	}
}

func (of *openFile) next() *openFile {

	p := avl.AvlTreeNextInOrder(&of.avl)
	if p != nil {
		return p.(*openFile)
	} else {
		return nil
	}
}

func (ctx *Context) allFiles() []*openFile {

	var files []*openFile

	for of := ctx.firstFile(); of != nil; of = of.next() {
		files = append(files, of)
	}

	return files
}

//
// Handles are written #1, 1, or "1" depending on the macro
//

func fileHandle(v any) int {

	if s, ok := v.(string); ok {
		v = strings.TrimPrefix(strings.TrimSpace(s), "#")
	}

	h, ok := toInteger(v)
	runtimeCheck(ok, EBADHANDLE, reprValue(v))

	return h
}

//
// Printable view of the bytes written so far.  Non-printing bytes show
// as '.'
//

func (of *openFile) preview(maxLen int) string {

	var sb strings.Builder

	for i, b := range of.contents {
		if i >= maxLen {
			sb.WriteString("...")
			break
		}

		n, ok := b.(int)
		if ok && n >= 0x20 && n < 0x7f {
			sb.WriteByte(byte(n))
		} else {
			sb.WriteByte('.')
		}
	}

	return sb.String()
}
