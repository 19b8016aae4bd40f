package ui

import (
	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/imagetask"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

const (
	// gridColumns is the column count of a single-scope grid.
	gridColumns = 3
	// gridCellWidth is the widest a grid cell gets.
	gridCellWidth = 28
	// gridTitleWidth is the section title column on the left of the grid.
	gridTitleWidth = 9
)

// cell is one item slot on a surface. Its key is the item's position in
// its section, which is what the artwork registries are keyed by.
type cell struct {
	key  imagetask.RowKey
	id   catalog.ItemID
	flat int // position in cursor order
}

// flatten returns every cell of snap in cursor order.
func flatten(snap snapshot.Snapshot) []cell {
	var cells []cell
	for si, sec := range snap.Sections {
		for ri, id := range sec.IDs {
			cells = append(cells, cell{
				key:  imagetask.RowKey{Section: si, Row: ri},
				id:   id,
				flat: len(cells),
			})
		}
	}
	return cells
}

// tableLine is either a section header or an item row.
type tableLine struct {
	header string
	cell   cell
}

func (l tableLine) isHeader() bool { return l.header != "" }

// tableLayout lays snap out as headers followed by their rows.
func tableLayout(snap snapshot.Snapshot) []tableLine {
	var lines []tableLine
	flat := 0
	for si, sec := range snap.Sections {
		lines = append(lines, tableLine{header: sec.Title})
		for ri, id := range sec.IDs {
			lines = append(lines, tableLine{cell: cell{
				key:  imagetask.RowKey{Section: si, Row: ri},
				id:   id,
				flat: flat,
			}})
			flat++
		}
	}
	return lines
}

// tableWindow returns the line range [from, to) that fits in height with
// the cursor's row on screen.
func tableWindow(lines []tableLine, cursor, height int) (from, to int) {
	if height < 1 {
		height = 1
	}
	cursorLine := 0
	for i, l := range lines {
		if !l.isHeader() && l.cell.flat == cursor {
			cursorLine = i
			break
		}
	}
	if cursorLine >= height {
		from = cursorLine - height + 1
	}
	to = from + height
	if to > len(lines) {
		to = len(lines)
	}
	return from, to
}

// gridRow is one line of the grid. title is set on a section's first row.
type gridRow struct {
	title string
	cells []cell
}

// gridLayout arranges snap for the grid surface. With scope All every
// section is a single horizontally scrolling row; a single scope wraps
// into gridColumns columns.
func gridLayout(snap snapshot.Snapshot) []gridRow {
	var rows []gridRow
	flat := 0
	for si, sec := range snap.Sections {
		cells := make([]cell, len(sec.IDs))
		for ri, id := range sec.IDs {
			cells[ri] = cell{key: imagetask.RowKey{Section: si, Row: ri}, id: id, flat: flat}
			flat++
		}

		if snap.Scope == catalog.ScopeAll {
			rows = append(rows, gridRow{title: sec.Title, cells: cells})
			continue
		}
		for start := 0; start < len(cells); start += gridColumns {
			end := min(start+gridColumns, len(cells))
			row := gridRow{cells: cells[start:end]}
			if start == 0 {
				row.title = sec.Title
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// gridPosition finds the row and column holding the cursor.
func gridPosition(rows []gridRow, cursor int) (row, col int) {
	for r, gr := range rows {
		for c, cl := range gr.cells {
			if cl.flat == cursor {
				return r, c
			}
		}
	}
	return 0, 0
}

// gridCellsPerLine is how many cells fit beside the title column.
func gridCellsPerLine(width int) int {
	n := (width - gridTitleWidth) / gridCellWidth
	if n < 1 {
		n = 1
	}
	return n
}

// gridWindow returns the visible row range and, per row, the first cell
// index shown. Only the cursor's row scrolls horizontally.
func gridWindow(rows []gridRow, cursor, width, height int) (from, to int, offsets map[int]int) {
	if height < 1 {
		height = 1
	}
	curRow, curCol := gridPosition(rows, cursor)
	if curRow >= height {
		from = curRow - height + 1
	}
	to = min(from+height, len(rows))

	perLine := gridCellsPerLine(width)
	offsets = make(map[int]int)
	if curCol >= perLine {
		offsets[curRow] = curCol - perLine + 1
	}
	return from, to, offsets
}

// visibleCells returns the cells currently on screen for a surface.
func visibleCells(surface coord.Surface, snap snapshot.Snapshot, cursor, width, height int) []cell {
	var out []cell
	if surface == coord.SurfaceTable {
		lines := tableLayout(snap)
		from, to := tableWindow(lines, cursor, height)
		for _, l := range lines[from:to] {
			if !l.isHeader() {
				out = append(out, l.cell)
			}
		}
		return out
	}

	rows := gridLayout(snap)
	from, to, offsets := gridWindow(rows, cursor, width, height)
	perLine := gridCellsPerLine(width)
	for r := from; r < to; r++ {
		cells := rows[r].cells
		start := offsets[r]
		end := min(start+perLine, len(cells))
		out = append(out, cells[start:end]...)
	}
	return out
}

// moveVertical returns the cursor one visual row up (delta -1) or down
// (delta +1) on surface, keeping the column where it can.
func moveVertical(surface coord.Surface, snap snapshot.Snapshot, cursor, delta int) int {
	total := snap.Len()
	if total == 0 {
		return 0
	}
	if surface == coord.SurfaceTable {
		return clamp(cursor+delta, 0, total-1)
	}

	rows := gridLayout(snap)
	r, c := gridPosition(rows, cursor)
	r += delta
	if r < 0 || r >= len(rows) {
		return cursor
	}
	c = min(c, len(rows[r].cells)-1)
	return rows[r].cells[c].flat
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
