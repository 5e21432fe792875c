package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// Context keys rendered by position rather than as plain details.
var layoutKeys = map[string]bool{
	"file": true, "line": true, "column": true,
	"source": true, "notes": true, "helps": true,
}

// FormatError formats an error for CLI display in Cargo/rustc style.
// If the error is an *alerr.Error, it extracts structured information.
// Otherwise, it formats as a generic error.
//
//	error[E3001]: ReferenceError: addEntiti is not defined
//	  --> model.js:3:1
//	  |
//	3 | addEntiti({name: "User"});
//	  | ^
//	  |
//	note: a variable or function was not found in scope
//	help: did you mean 'addEntity'?
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var coded *alerr.Error
	if errors.As(err, &coded) {
		return formatCodedError(coded)
	}
	return formatGenericError(err)
}

func formatCodedError(err *alerr.Error) string {
	var b strings.Builder

	ctx := err.GetContext()

	// First line: error[E1001]: message
	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(string(err.GetCode())))
	b.WriteString("]: ")
	b.WriteString(err.GetMessage())
	b.WriteString("\n")

	file, _ := ctx["file"].(string)
	line, _ := ctx["line"].(int)
	col, _ := ctx["column"].(int)
	source, _ := ctx["source"].(string)

	gutter := "  "
	if line > 0 {
		gutter = strings.Repeat(" ", len(strconv.Itoa(line))+1)
	}

	if file != "" {
		b.WriteString(gutter)
		b.WriteString(render(stylePipe, "-->"))
		b.WriteString(" ")
		b.WriteString(FilePath(location(file, line, col)))
		b.WriteString("\n")
	} else if line > 0 && source == "" {
		b.WriteString(gutter)
		b.WriteString(render(stylePipe, "-->"))
		b.WriteString(" ")
		b.WriteString(FilePath(location("<script>", line, col)))
		b.WriteString("\n")
	}

	if source != "" && line > 0 {
		b.WriteString(formatSourceContext(line, source, col))
	}

	// Remaining context as sorted details
	var details []string
	for k, v := range ctx {
		if layoutKeys[k] {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(details)
	if len(details) > 0 {
		b.WriteString(gutter)
		b.WriteString(Pipe())
		b.WriteString("\n")
		for _, detail := range details {
			b.WriteString(gutter)
			b.WriteString(Pipe())
			b.WriteString(" ")
			b.WriteString(detail)
			b.WriteString("\n")
		}
	}

	for _, note := range err.Notes() {
		b.WriteString(Note("note"))
		b.WriteString(": ")
		b.WriteString(note)
		b.WriteString("\n")
	}
	for _, help := range err.Helps() {
		b.WriteString(Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	if cause := err.GetCause(); cause != nil {
		if msg := cleanCauseMessage(cause.Error()); msg != err.GetMessage() {
			b.WriteString(Note("cause"))
			b.WriteString(": ")
			b.WriteString(msg)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func location(file string, line, col int) string {
	switch {
	case line > 0 && col > 0:
		return fmt.Sprintf("%s:%d:%d", file, line, col)
	case line > 0:
		return fmt.Sprintf("%s:%d", file, line)
	default:
		return file
	}
}

// cleanCauseMessage removes the Goja stack suffix from an error message.
func cleanCauseMessage(msg string) string {
	if idx := strings.Index(msg, " at "); idx != -1 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}

// formatSourceContext renders the source line with its number and a caret
// under col.
func formatSourceContext(line int, source string, col int) string {
	var b strings.Builder

	lineStr := strconv.Itoa(line)
	padding := strings.Repeat(" ", len(lineStr))

	b.WriteString(padding)
	b.WriteString(" ")
	b.WriteString(Pipe())
	b.WriteString("\n")

	b.WriteString(LineNum(lineStr))
	b.WriteString(" ")
	b.WriteString(Pipe())
	b.WriteString(" ")
	b.WriteString(source)
	b.WriteString("\n")

	if col > 0 {
		b.WriteString(padding)
		b.WriteString(" ")
		b.WriteString(Pipe())
		b.WriteString(" ")
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString(Pointer("^"))
		b.WriteString("\n")
	}

	b.WriteString(padding)
	b.WriteString(" ")
	b.WriteString(Pipe())
	b.WriteString("\n")

	return b.String()
}

// formatGenericError formats an uncoded error.
func formatGenericError(err error) string {
	return Error("error") + ": " + err.Error() + "\n"
}

// FormatWarning formats a warning message.
func FormatWarning(msg string) string {
	return Warning("warning") + ": " + msg + "\n"
}

// FormatNote formats a note message.
func FormatNote(msg string) string {
	return Note("note") + ": " + msg + "\n"
}

// FormatHelp formats a help message.
func FormatHelp(msg string) string {
	return Help("help") + ": " + msg + "\n"
}

// FormatSuccess formats a success message.
func FormatSuccess(msg string) string {
	return Success("success") + ": " + msg + "\n"
}
