package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/hlop3z/erdlab/internal/cli"
	"github.com/hlop3z/erdlab/internal/drift"
	"github.com/hlop3z/erdlab/internal/sqlgen"
)

// Browser labels.
const (
	TitleHistory   = " History "
	PanelDetails   = " Details "
	HintsHistory   = "j/k move  g/G first/last  q quit"
	MsgNoHistory   = "No history yet."
	currentMarker  = "*"
)

// HistoryItem is one row of the history browser.
type HistoryItem struct {
	Index         int
	Action        string
	When          string
	Fingerprint   string
	Summary       string
	Details       string
	SQL           string
	Entities      int
	Relationships int
	Current       bool
}

// HistoryItems converts a drift timeline into browser rows. Times are shown
// relative to now.
func HistoryItems(steps []drift.Step, cursor int, now time.Time) []HistoryItem {
	items := make([]HistoryItem, 0, len(steps))
	for _, s := range steps {
		item := HistoryItem{
			Index:         s.Index,
			Action:        s.Entry.Action,
			When:          humanize.RelTime(s.Entry.RecordedAt, now, "ago", "from now"),
			Fingerprint:   drift.ShortHash(s.Hash.Root),
			Summary:       "initial",
			Entities:      len(s.Entry.State.Entities),
			Relationships: len(s.Entry.State.Relationships),
			Current:       s.Index == cursor,
			SQL:           sqlgen.Generate(s.Entry.State),
		}
		if s.Change != nil {
			item.Summary = drift.FormatSummary(s.Change)
			item.Details = drift.FormatComparison(s.Change)
		}
		items = append(items, item)
	}
	return items
}

// BrowseHistory shows the history in a full-screen view, or as a plain table
// when out is not a terminal.
func BrowseHistory(items []HistoryItem, out io.Writer) error {
	if f, ok := out.(*os.File); !ok || !cli.IsTerminal(f.Fd()) {
		return WriteHistory(items, out)
	}

	app := tview.NewApplication()
	layout, _, _ := newHistoryView(items)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'j':
			return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
		case 'k':
			return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
		case 'g':
			return tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone)
		case 'G':
			return tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone)
		}
		if event.Key() == tcell.KeyEscape {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(layout, true).EnableMouse(true).Run()
}

// WriteHistory writes the history as plain text, newest last.
func WriteHistory(items []HistoryItem, out io.Writer) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, MsgNoHistory)
		return err
	}
	t := cli.NewTable("", "#", "ACTION", "WHEN", "FINGERPRINT", "CHANGES")
	for _, it := range items {
		marker := ""
		if it.Current {
			marker = currentMarker
		}
		t.AddRow(marker, strconv.Itoa(it.Index), it.Action, it.When, it.Fingerprint, it.Summary)
	}
	_, err := io.WriteString(out, t.String())
	return err
}

// newHistoryView builds the browser layout: a table of entries on the left
// and the selected entry's details on the right.
func newHistoryView(items []HistoryItem) (*tview.Flex, *tview.Table, *tview.TextView) {
	header := tview.NewTextView().
		SetText(fmt.Sprintf(" erd history: %d entries", len(items))).
		SetTextColor(Theme.Text).
		SetTextAlign(tview.AlignLeft)
	header.SetBackgroundColor(Theme.Primary)

	list := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, false).
		SetSelectedStyle(tcell.StyleDefault.
			Foreground(Theme.Highlight).
			Background(Theme.Selection))
	list.SetBackgroundColor(Theme.Background)
	list.SetBorder(true).SetBorderColor(Theme.Border).SetTitle(TitleHistory)

	for i, h := range []string{"", "#", "Action", "When", "Changes"} {
		list.SetCell(0, i, tview.NewTableCell(h).
			SetTextColor(Theme.Header).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold))
	}

	details := tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true)
	details.SetBackgroundColor(Theme.Background).
		SetBorder(true).
		SetBorderColor(Theme.Border).
		SetTitle(PanelDetails)

	selected := 1
	for i, it := range items {
		row := i + 1
		marker := ""
		color := Theme.Text
		if it.Current {
			marker = currentMarker
			color = Theme.Success
			selected = row
		}
		list.SetCell(row, 0, tview.NewTableCell(marker).SetTextColor(Theme.Success))
		list.SetCell(row, 1, tview.NewTableCell(strconv.Itoa(it.Index)).SetTextColor(Theme.TextDim))
		list.SetCell(row, 2, tview.NewTableCell(it.Action).SetTextColor(color).SetExpansion(2))
		list.SetCell(row, 3, tview.NewTableCell(it.When).SetTextColor(Theme.TextDim).SetExpansion(1))
		list.SetCell(row, 4, tview.NewTableCell(it.Summary).SetTextColor(Theme.Warning).SetExpansion(2))
	}

	list.SetSelectionChangedFunc(func(row, _ int) {
		if row > 0 && row <= len(items) {
			details.SetText(formatHistoryDetails(items[row-1]))
		}
	})
	if len(items) > 0 {
		list.Select(selected, 0)
		details.SetText(formatHistoryDetails(items[selected-1]))
	} else {
		details.SetText(MsgNoHistory)
	}

	statusBar := tview.NewTextView().
		SetText(HintsHistory).
		SetTextColor(Theme.TextDim).
		SetTextAlign(tview.AlignCenter)
	statusBar.SetBackgroundColor(Theme.Background)

	content := tview.NewFlex().
		AddItem(list, 0, 3, true).
		AddItem(details, 0, 2, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(content, 0, 1, true).
		AddItem(statusBar, 1, 0, false)
	layout.SetBackgroundColor(Theme.Background)

	return layout, list, details
}

func formatHistoryDetails(it HistoryItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action:        %s\n", it.Action)
	fmt.Fprintf(&b, "Recorded:      %s\n", it.When)
	fmt.Fprintf(&b, "Fingerprint:   %s\n", it.Fingerprint)
	fmt.Fprintf(&b, "Entities:      %d\n", it.Entities)
	fmt.Fprintf(&b, "Relationships: %d\n", it.Relationships)
	if it.Current {
		b.WriteString("\n(current state)\n")
	}
	if it.Details != "" {
		b.WriteString("\n")
		b.WriteString(it.Details)
	}
	if it.SQL != "" {
		b.WriteString("\nSQL:\n")
		b.WriteString(it.SQL)
	}
	return b.String()
}
