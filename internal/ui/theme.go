package ui

import (
	"github.com/gdamore/tcell/v2"
)

// Theme defines the color scheme of the full-screen views.
var Theme = struct {
	Primary   tcell.Color
	Success   tcell.Color
	Warning   tcell.Color
	Highlight tcell.Color

	Text    tcell.Color
	TextDim tcell.Color

	Background tcell.Color
	Border     tcell.Color
	Header     tcell.Color
	Selection  tcell.Color
}{
	Primary:   tcell.ColorBlue,
	Success:   tcell.ColorGreen,
	Warning:   tcell.ColorYellow,
	Highlight: tcell.ColorAqua, // tcell v2 uses ColorAqua for cyan

	Text:    tcell.ColorWhite,
	TextDim: tcell.ColorGray,

	Background: tcell.ColorBlack,
	Border:     tcell.ColorGray,
	Header:     tcell.ColorYellow,
	Selection:  tcell.ColorTeal,
}
