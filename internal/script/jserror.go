package script

import (
	"bufio"
	"errors"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/jsutil"
)

// JSErrorInfo contains extracted information from a JavaScript error.
type JSErrorInfo struct {
	Message   string
	Line      int
	Column    int
	Stack     string
	ErrorCode string // from the __errorCode property of errors thrown by bindings
	Help      string // from the __errorHelp property
}

// ParseJSError extracts position and structured fields from a Goja error.
func ParseJSError(err error) *JSErrorInfo {
	if err == nil {
		return nil
	}

	info := &JSErrorInfo{Message: err.Error()}

	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		info.Message = syntaxErr.Error()
		if syntaxErr.File != nil {
			pos := syntaxErr.File.Position(syntaxErr.Offset)
			info.Line = pos.Line
			info.Column = pos.Column
		}
		return info
	}

	var exception *goja.Exception
	if !errors.As(err, &exception) {
		return info
	}

	info.Message = exception.Value().String()
	info.Stack = exception.String()

	if obj, ok := exception.Value().(*goja.Object); ok {
		if v := obj.Get(jsutil.ErrorCodeKey); !jsutil.IsNullish(v) {
			info.ErrorCode = v.String()
		}
		if v := obj.Get(jsutil.ErrorMessageKey); !jsutil.IsNullish(v) {
			info.Message = v.String()
		}
		if v := obj.Get(jsutil.ErrorHelpKey); !jsutil.IsNullish(v) {
			info.Help = v.String()
		}
	}

	// Native Go frames have line 0; the first JS frame is the call site.
	if frames := exception.Stack(); len(frames) > 0 {
		for _, frame := range frames {
			pos := frame.Position()
			if pos.Line > 0 {
				info.Line = pos.Line
				info.Column = pos.Column
				break
			}
		}
	} else {
		parseGojaErrorMessage(info)
	}
	return info
}

// parseGojaErrorMessage reads "Line X:Y" out of a Goja syntax error message,
// for exceptions that carry no stack frames.
func parseGojaErrorMessage(info *JSErrorInfo) {
	msg := info.Message

	lineIdx := strings.Index(msg, "Line ")
	if lineIdx == -1 {
		return
	}
	rest := msg[lineIdx+len("Line "):]

	lineStr, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return
	}
	if line, err := strconv.Atoi(lineStr); err == nil {
		info.Line = line
	}

	if colStr, _, ok := strings.Cut(rest, " "); ok {
		if col, err := strconv.Atoi(colStr); err == nil {
			info.Column = col
		}
	}
}

// GetSourceLine returns the 1-indexed line lineNum of code, or "".
func GetSourceLine(code string, lineNum int) string {
	if lineNum <= 0 || code == "" {
		return ""
	}

	scanner := bufio.NewScanner(strings.NewReader(code))
	current := 0
	for scanner.Scan() {
		current++
		if current == lineNum {
			return scanner.Text()
		}
	}
	return ""
}

// addJSErrorHelp attaches generic hints for plain JavaScript failures.
// Errors thrown by bindings already carry their own help.
func addJSErrorHelp(err *alerr.Error, message string) {
	if err.GetCode() != alerr.ErrScriptExecution {
		return
	}

	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "is not defined"):
		err.WithNote("a variable or function was not found in scope")
		if name := undefinedName(message); name != "" {
			if hint := alerr.SuggestSimilar(name, Globals); hint != "" {
				err.WithHelp(hint)
			}
		}
	case strings.Contains(msg, "is not a function"):
		err.WithNote("attempted to call something that is not a function")
		err.WithHelp("check the method name and ensure it exists on the object")
	case strings.Contains(msg, "syntax"), strings.Contains(msg, "unexpected token"):
		err.WithNote("check for missing brackets, quotes, or commas")
	case strings.Contains(msg, "maximum call stack"):
		err.WithNote("scripts are limited to " + strconv.Itoa(MaxCallStackSize) + " nested calls")
	}
}

// undefinedName extracts "foo" from "ReferenceError: foo is not defined".
func undefinedName(message string) string {
	before, _, ok := strings.Cut(message, " is not defined")
	if !ok {
		return ""
	}
	if _, name, ok := strings.Cut(before, ": "); ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(before)
}
