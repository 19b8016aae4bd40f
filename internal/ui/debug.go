package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/storesearch/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and vertical
// padding take. Keep in sync with the style.
const debugPanelChrome = 4

const debugRecent = 20

// counter is one "<n> <label>" cell of a stats line.
type counter struct {
	kind  otel.EventKind
	label string
}

// debugStats lists the stats lines in display order.
var debugStats = []struct {
	title    string
	counters []counter
}{
	{"Searches", []counter{
		{otel.KindSearchStart, "started"},
		{otel.KindSearchComplete, "complete"},
		{otel.KindSearchCancel, "cancelled"},
		{otel.KindSearchCleared, "cleared"},
	}},
	{"Scopes", []counter{
		{otel.KindScopeResult, "applied"},
		{otel.KindSearchStale, "stale"},
		{otel.KindFetchError, "errors"},
	}},
	{"Artwork", []counter{
		{otel.KindImageLoaded, "loaded"},
		{otel.KindImageCacheHit, "cached"},
		{otel.KindImageCancel, "cancelled"},
		{otel.KindImageError, "errors"},
	}},
}

// debugOverlay renders pipeline counters and the most recent events from
// ring. Returns "" for a nil ring.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Pipeline Stats"))
	for _, s := range debugStats {
		cells := make([]string, len(s.counters))
		for i, c := range s.counters {
			cells[i] = fmt.Sprintf("%d %s", stats[c.kind], c.label)
		}
		lines = append(lines, fmt.Sprintf("  %-11s %s", s.title+":", strings.Join(cells, ", ")))
	}
	lines = append(lines, fmt.Sprintf("  %-11s %d / %d events", "Buffer:", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(debugRecent) {
		lines = append(lines, "  "+debugEventLine(e))
	}

	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := max(min(96, width-4), 20)
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// debugEventLine formats one event: age, kind, then whichever of scope,
// row, message, error and query ID are set.
func debugEventLine(e otel.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%6s  %-20s", formatAge(time.Since(e.Time)), e.Kind)
	if e.Scope != "" {
		b.WriteString("  " + e.Scope)
	}
	if e.Row != "" {
		b.WriteString("  " + e.Surface + ":" + e.Row)
	}
	if e.Msg != "" {
		b.WriteString("  " + runewidth.Truncate(e.Msg, 40, "…"))
	}
	if e.Err != "" {
		b.WriteString("  ERR:" + runewidth.Truncate(e.Err, 30, "…"))
	}
	if e.QueryID != "" {
		qid := e.QueryID
		if len(qid) > 8 {
			qid = qid[:8]
		}
		b.WriteString("  qid:" + qid)
	}
	return b.String()
}

// formatAge formats d compactly. Negative durations (clock skew) read as 0ms.
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("^d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
