package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

// Sender delivers messages to the running program. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Relay is a Sender whose target is attached after construction, since
// the program needs the App and the App needs the coordinator.
// Messages sent before Attach are dropped.
type Relay struct {
	mu     sync.RWMutex
	target Sender
}

// Attach points the relay at s.
func (r *Relay) Attach(s Sender) {
	r.mu.Lock()
	r.target = s
	r.mu.Unlock()
}

// Send implements Sender.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target != nil {
		target.Send(msg)
	}
}

// Renderer adapts one surface of the App to coord.Renderer by forwarding
// every call to the program as a message. Only the table surface reports
// search state so the App sees one SearchStateChanged per transition.
type Renderer struct {
	surface coord.Surface
	send    Sender
}

// NewRenderer creates the adapter for surface.
func NewRenderer(surface coord.Surface, send Sender) *Renderer {
	return &Renderer{surface: surface, send: send}
}

// ApplySnapshot implements coord.Renderer.
func (r *Renderer) ApplySnapshot(snap snapshot.Snapshot, items catalog.Index) {
	if r.send == nil {
		return
	}
	r.send.Send(SnapshotApplied{Surface: r.surface, Snap: snap, Items: items})
}

// ReconfigureItem implements coord.Renderer.
func (r *Renderer) ReconfigureItem(id catalog.ItemID) {
	if r.send == nil {
		return
	}
	r.send.Send(ItemReconfigured{Surface: r.surface, ID: id})
}

// SearchState implements coord.ProgressRenderer.
func (r *Renderer) SearchState(searching bool, q catalog.Query) {
	if r.send == nil || r.surface != coord.SurfaceTable {
		return
	}
	r.send.Send(SearchStateChanged{Searching: searching, Query: q})
}
