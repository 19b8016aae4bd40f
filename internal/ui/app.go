package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/imagetask"
	"github.com/abelbrown/storesearch/internal/otel"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

// Searcher is the slice of the coordinator the App drives.
// Every method must return without waiting on the coordinator's loop.
type Searcher interface {
	InputChanged(term string, scope catalog.Scope)
	RowVisible(surface coord.Surface, key imagetask.RowKey, id catalog.ItemID)
	RowHidden(surface coord.Surface, key imagetask.RowKey)
	ViewDisappeared()
}

// ImageCache looks up downloaded artwork.
type ImageCache interface {
	CachedImage(url string) ([]byte, bool)
}

// AppConfig configures NewApp. Ring and Images may be nil.
type AppConfig struct {
	Search Searcher
	Images ImageCache
	Ring   *otel.RingBuffer
	Scope  catalog.Scope
	View   coord.Surface
}

// surfaceState is what one rendering surface currently shows.
type surfaceState struct {
	snap    snapshot.Snapshot
	items   catalog.Index
	visible map[imagetask.RowKey]catalog.ItemID
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the coordinator's state. It receives
// snapshots via messages and only ever posts events back.
type App struct {
	search Searcher
	images ImageCache
	ring   *otel.RingBuffer
	keys   keyMap

	input   textinput.Model
	spinner spinner.Model

	scope     catalog.Scope
	view      coord.Surface
	surfaces  [2]surfaceState
	cursor    int
	searching bool
	debug     bool
	width     int
	height    int
	ready     bool
}

// NewApp creates the App.
func NewApp(cfg AppConfig) App {
	ti := textinput.New()
	ti.Placeholder = "Search apps, books, music and movies"
	ti.Prompt = "⌕ "
	ti.PromptStyle = SearchBarPrompt
	ti.CharLimit = 100
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	a := App{
		search:  cfg.Search,
		images:  cfg.Images,
		ring:    cfg.Ring,
		keys:    defaultKeyMap(),
		input:   ti,
		spinner: s,
		scope:   cfg.Scope,
		view:    cfg.View,
	}
	for i := range a.surfaces {
		a.surfaces[i].visible = make(map[imagetask.RowKey]catalog.ItemID)
	}
	return a
}

// Init starts the cursor blinking.
func (a App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(msg.Width/2, 10)
		a.ready = true
		a.syncVisible()
		return a, nil

	case SnapshotApplied:
		if msg.Surface < 0 || int(msg.Surface) >= len(a.surfaces) {
			return a, nil
		}
		st := &a.surfaces[msg.Surface]
		st.snap = msg.Snap
		st.items = msg.Items
		if msg.Surface == a.view {
			a.cursor = clamp(a.cursor, 0, max(msg.Snap.Len()-1, 0))
			a.syncVisible()
		}
		return a, nil

	case ItemReconfigured:
		// Nothing to store: View reads the badge from the image cache.
		return a, nil

	case SearchStateChanged:
		wasSearching := a.searching
		a.searching = msg.Searching
		if a.searching && !wasSearching {
			return a, a.spinner.Tick
		}
		return a, nil

	case spinner.TickMsg:
		if !a.searching {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.search != nil {
			a.search.ViewDisappeared()
		}
		return a, tea.Quit

	case key.Matches(msg, a.keys.NextScope):
		a.scope = a.scope.Next()
		a.inputChanged()
		return a, nil

	case key.Matches(msg, a.keys.PrevScope):
		a.scope = a.scope.Prev()
		a.inputChanged()
		return a, nil

	case key.Matches(msg, a.keys.ToggleView):
		a.hideAll(a.view)
		if a.view == coord.SurfaceTable {
			a.view = coord.SurfaceGrid
		} else {
			a.view = coord.SurfaceTable
		}
		a.cursor = clamp(a.cursor, 0, max(a.active().snap.Len()-1, 0))
		a.syncVisible()
		return a, nil

	case key.Matches(msg, a.keys.Debug):
		a.debug = !a.debug
		return a, nil

	case key.Matches(msg, a.keys.Up):
		a.cursor = moveVertical(a.view, a.active().snap, a.cursor, -1)
		a.syncVisible()
		return a, nil

	case key.Matches(msg, a.keys.Down):
		a.cursor = moveVertical(a.view, a.active().snap, a.cursor, +1)
		a.syncVisible()
		return a, nil

	case key.Matches(msg, a.keys.NextItem):
		a.cursor = clamp(a.cursor+1, 0, max(a.active().snap.Len()-1, 0))
		a.syncVisible()
		return a, nil

	case key.Matches(msg, a.keys.PrevItem):
		a.cursor = clamp(a.cursor-1, 0, max(a.active().snap.Len()-1, 0))
		a.syncVisible()
		return a, nil

	case key.Matches(msg, a.keys.Clear):
		if a.input.Value() != "" {
			a.input.SetValue("")
			a.inputChanged()
		}
		return a, nil
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() != before {
		a.inputChanged()
	}
	return a, cmd
}

func (a *App) inputChanged() {
	a.cursor = 0
	if a.search != nil {
		a.search.InputChanged(a.input.Value(), a.scope)
	}
}

func (a *App) active() *surfaceState {
	return &a.surfaces[a.view]
}

// bodyHeight is the number of lines between the search and status bars.
func (a App) bodyHeight() int {
	return max(a.height-2, 1)
}

// syncVisible reports row visibility for the active surface: rows that
// left the screen are hidden, and rows that appeared, changed item, or
// still lack artwork are (re)requested.
func (a *App) syncVisible() {
	if !a.ready || a.search == nil {
		return
	}
	st := a.active()
	now := make(map[imagetask.RowKey]catalog.ItemID)
	for _, c := range visibleCells(a.view, st.snap, a.cursor, a.width, a.bodyHeight()) {
		now[c.key] = c.id
	}

	for k, id := range st.visible {
		if nid, ok := now[k]; !ok || nid != id {
			a.search.RowHidden(a.view, k)
		}
	}
	for k, id := range now {
		prev, seen := st.visible[k]
		if !seen || prev != id || !a.hasArtwork(st.items, id) {
			a.search.RowVisible(a.view, k, id)
		}
	}
	st.visible = now
}

// hideAll reports every row of surface as hidden.
func (a *App) hideAll(surface coord.Surface) {
	st := &a.surfaces[surface]
	if a.search != nil {
		for k := range st.visible {
			a.search.RowHidden(surface, k)
		}
	}
	st.visible = make(map[imagetask.RowKey]catalog.ItemID)
}

// hasArtwork reports whether id needs no artwork request: either it has
// no artwork or the bytes are cached.
func (a App) hasArtwork(items catalog.Index, id catalog.ItemID) bool {
	it, ok := items.Get(id)
	if !ok || it.ArtworkURL == "" {
		return true
	}
	if a.images == nil {
		return false
	}
	_, ok = a.images.CachedImage(it.ArtworkURL)
	return ok
}

// thumb renders an item's artwork badge.
func (a App) thumb(it catalog.Item) string {
	if it.ArtworkURL == "" {
		return " "
	}
	if a.images != nil {
		if _, ok := a.images.CachedImage(it.ArtworkURL); ok {
			return ThumbLoaded.Render("▣")
		}
	}
	return ThumbPending.Render("□")
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	progress := ""
	if a.searching {
		progress = a.spinner.View()
	}
	bar := RenderSearchBar(a.input.View(), a.scope, a.width, progress)

	if a.debug {
		body := lipgloss.Place(a.width, a.bodyHeight(), lipgloss.Center, lipgloss.Center,
			debugOverlay(a.ring, a.width, a.bodyHeight()))
		return lipgloss.JoinVertical(lipgloss.Left, bar, body, debugStatusBar(a.width))
	}

	st := a.surfaces[a.view]
	var body string
	if a.view == coord.SurfaceGrid {
		body = RenderGrid(st.snap, st.items, a.cursor, a.width, a.bodyHeight(), a.thumb)
	} else {
		body = RenderTable(st.snap, st.items, a.cursor, a.width, a.bodyHeight(), a.thumb)
	}
	body = lipgloss.NewStyle().Height(a.bodyHeight()).MaxHeight(a.bodyHeight()).Render(body)

	status := RenderStatusBar(a.cursor, st.snap.Len(), a.view.String(), a.width, a.keys.hints())
	return lipgloss.JoinVertical(lipgloss.Left, bar, body, status)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Scope returns the selected scope (for testing).
func (a App) Scope() catalog.Scope {
	return a.scope
}

// ActiveView returns the surface being shown (for testing).
func (a App) ActiveView() coord.Surface {
	return a.view
}
