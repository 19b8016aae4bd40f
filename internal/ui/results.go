package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

// thumbFunc renders the artwork badge for an item.
type thumbFunc func(it catalog.Item) string

// RenderTable renders the sectioned list. Returns the rendered string for
// display.
func RenderTable(snap snapshot.Snapshot, items catalog.Index, cursor, width, height int, thumb thumbFunc) string {
	if snap.Empty() {
		return HelpStyle.Render(emptyText(snap))
	}

	lines := tableLayout(snap)
	from, to := tableWindow(lines, cursor, height)

	var b strings.Builder
	for _, l := range lines[from:to] {
		if l.isHeader() {
			b.WriteString(SectionHeader.Render(l.header))
		} else {
			it, _ := items.Get(l.cell.id)
			b.WriteString(renderTableRow(it, l.cell.flat == cursor, width, thumb))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderTableRow renders one item: badge, name, then artist and price
// right-aligned in the remaining width.
func renderTableRow(it catalog.Item, selected bool, width int, thumb thumbFunc) string {
	badge := thumb(it)

	meta := it.Artist
	if it.Price != "" {
		meta += "  " + it.Price
	}
	meta = runewidth.Truncate(meta, width/3, "…")

	nameWidth := width - lipgloss.Width(badge) - runewidth.StringWidth(meta) - 6
	if nameWidth < 10 {
		nameWidth = 10
	}
	name := runewidth.FillRight(runewidth.Truncate(it.Name, nameWidth, "…"), nameWidth)

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	return badge + " " + style.Render(name) + " " + MetaItem.Render(meta)
}

// RenderGrid renders the grid surface.
func RenderGrid(snap snapshot.Snapshot, items catalog.Index, cursor, width, height int, thumb thumbFunc) string {
	if snap.Empty() {
		return HelpStyle.Render(emptyText(snap))
	}

	rows := gridLayout(snap)
	from, to, offsets := gridWindow(rows, cursor, width, height)
	perLine := gridCellsPerLine(width)
	cellWidth := min(gridCellWidth, max((width-gridTitleWidth)/gridColumns, 8))
	if snap.Scope == catalog.ScopeAll {
		cellWidth = gridCellWidth
	}

	var b strings.Builder
	for r := from; r < to; r++ {
		row := rows[r]
		title := runewidth.FillRight(runewidth.Truncate(row.title, gridTitleWidth-1, "…"), gridTitleWidth)
		b.WriteString(SectionHeader.Padding(0).Render(title))

		start := offsets[r]
		end := min(start+perLine, len(row.cells))
		if start > 0 {
			b.WriteString(MetaItem.Render("‹"))
		}
		for _, cl := range row.cells[start:end] {
			it, _ := items.Get(cl.id)
			b.WriteString(renderGridCell(it, cl.flat == cursor, cellWidth, thumb))
		}
		if end < len(row.cells) {
			b.WriteString(MetaItem.Render("›"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderGridCell(it catalog.Item, selected bool, width int, thumb thumbFunc) string {
	badge := thumb(it)
	nameWidth := width - lipgloss.Width(badge) - 3
	if nameWidth < 4 {
		nameWidth = 4
	}
	name := runewidth.FillRight(runewidth.Truncate(it.Name, nameWidth, "…"), nameWidth)
	style := NormalItem
	if selected {
		style = SelectedItem
	}
	return badge + style.Render(name)
}

func emptyText(snap snapshot.Snapshot) string {
	if snap.Term == "" {
		return "Type to search the store. Tab switches scope."
	}
	return fmt.Sprintf("No results for %q.", snap.Term)
}

// RenderSearchBar renders the input, the scope tabs and a progress marker.
func RenderSearchBar(input string, scope catalog.Scope, width int, progress string) string {
	var tabs []string
	for _, s := range catalog.Scopes {
		if s == scope {
			tabs = append(tabs, ScopeTabActive.Render(s.Title()))
		} else {
			tabs = append(tabs, ScopeTab.Render(s.Title()))
		}
	}
	right := progress + " " + strings.Join(tabs, "")

	padding := width - lipgloss.Width(input) - lipgloss.Width(right) - 2 // -2 for bar padding
	if padding < 1 {
		padding = 1
	}
	return SearchBar.Width(width).Render(input + strings.Repeat(" ", padding) + right)
}

// RenderStatusBar renders the bottom status bar with key hints and counts.
func RenderStatusBar(cursor, total int, view string, width int, hints []key.Binding) string {
	var position string
	if total == 0 {
		position = fmt.Sprintf(" %s ", view)
	} else {
		position = fmt.Sprintf(" %s %d/%d ", view, cursor+1, total)
	}

	var keys []string
	for _, h := range hints {
		help := h.Help()
		if help.Key == "" {
			continue
		}
		keys = append(keys, StatusBarKey.Render(help.Key)+StatusBarText.Render(":"+help.Desc))
	}
	keyHints := strings.Join(keys, " ")

	// Calculate padding to fill width
	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
