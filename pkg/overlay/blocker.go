// Package overlay blocks the guarded page behind a modal dialog while the
// watched permission is unresolved. It creates exactly two page artifacts, a
// style block and an overlay container, both identified by reserved ids that
// must not collide with host-page content.
package overlay

import (
	"sync"

	"github.com/go-drift/netgate/pkg/errors"
	"github.com/go-drift/netgate/pkg/page"
)

// Reserved element ids and class markers. These are the only host-visible
// contract; internal operations rely on the blocker's own injection state,
// not on global id lookup.
const (
	// StyleID identifies the injected style block.
	StyleID = "netgate-style"

	// OverlayID identifies the injected overlay container.
	OverlayID = "netgate-overlay"

	// BlockedClass marks the page root while content is blocked.
	BlockedClass = "netgate-blocked"

	// VisibleClass marks the overlay while it is shown.
	VisibleClass = "netgate-visible"
)

// overlayCSS obscures page content and centers the dialog above it while the
// blocked marker is set. Interaction is disabled for everything except the
// overlay itself.
const overlayCSS = `
#` + OverlayID + ` {
  position: fixed;
  inset: 0;
  display: none;
  align-items: center;
  justify-content: center;
  background: rgba(10, 10, 14, 0.86);
  z-index: 2147483647;
}
#` + OverlayID + `.` + VisibleClass + ` {
  display: flex;
}
.` + BlockedClass + ` > :not(#` + OverlayID + `) {
  filter: blur(10px);
  pointer-events: none;
  user-select: none;
}
#` + OverlayID + ` .netgate-dialog {
  max-width: 26rem;
  padding: 1.5rem 2rem;
  border-radius: 0.75rem;
  background: #ffffff;
  color: #1a1a1f;
  font: 15px/1.5 system-ui, sans-serif;
  text-align: center;
}
`

// dialogHTML is the overlay's static explanatory content. Text is fixed.
const dialogHTML = `
<div class="netgate-dialog">
  <h1>Local network permission required</h1>
  <p>This page needs permission to reach devices on your local network.
  Content stays hidden until you respond to the permission prompt.</p>
</div>
`

// Page is the subset of page operations the blocker needs.
// *page.Controller satisfies it.
type Page interface {
	AppendStyle(id, css string) error
	AppendElement(id, html string) error
	AddClass(target, class string) error
	RemoveClass(target, class string) error
}

// Blocker shows and hides the blocking overlay. It owns the elements it
// created: injection and marker state are tracked locally, so repeated
// calls never duplicate page artifacts or class toggles.
//
// The two class markers are tracked independently. When one of Show's or
// Hide's class operations fails mid-way, the flags record exactly what the
// page actually holds, and the next Show or Hide retries only the missing
// part. A failed operation can therefore never wedge the page in a state
// that later calls cannot correct.
//
// All methods are safe for concurrent use.
type Blocker struct {
	page Page

	mu             sync.Mutex
	stylesInjected bool
	dialogInjected bool
	rootBlocked    bool
	overlayMarked  bool
}

// NewBlocker creates a blocker operating on the given page.
func NewBlocker(p Page) *Blocker {
	return &Blocker{page: p}
}

// EnsureStyles injects the overlay's style block exactly once.
// No-op if already injected.
func (b *Blocker) EnsureStyles() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stylesInjected {
		return nil
	}
	if err := b.page.AppendStyle(StyleID, overlayCSS); err != nil {
		return err
	}
	b.stylesInjected = true
	return nil
}

// EnsureDialog injects the overlay container with its static explanatory
// text exactly once. No-op if already injected.
func (b *Blocker) EnsureDialog() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dialogInjected {
		return nil
	}
	if err := b.page.AppendElement(OverlayID, dialogHTML); err != nil {
		return err
	}
	b.dialogInjected = true
	return nil
}

// Show blocks the page: the root gets the blocked marker and the overlay
// gets the visible marker. Safe to call before the overlay is injected
// (no-op) and safe to call repeatedly. Each marker is applied only if it is
// not already set, so a partially failed Show is completed by the next one.
func (b *Blocker) Show() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dialogInjected {
		return
	}
	if !b.rootBlocked {
		if err := b.page.AddClass(page.RootTarget, BlockedClass); err != nil {
			b.report("overlay.show", err)
			return
		}
		b.rootBlocked = true
	}
	if !b.overlayMarked {
		if err := b.page.AddClass(OverlayID, VisibleClass); err != nil {
			b.report("overlay.show", err)
			return
		}
		b.overlayMarked = true
	}
}

// Hide is the inverse of Show, equally idempotent and guarded. It removes
// whichever markers are actually set, so it also clears the remains of a
// partially failed Show.
func (b *Blocker) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dialogInjected {
		return
	}
	if b.overlayMarked {
		if err := b.page.RemoveClass(OverlayID, VisibleClass); err != nil {
			b.report("overlay.hide", err)
			return
		}
		b.overlayMarked = false
	}
	if b.rootBlocked {
		if err := b.page.RemoveClass(page.RootTarget, BlockedClass); err != nil {
			b.report("overlay.hide", err)
			return
		}
		b.rootBlocked = false
	}
}

// Visible reports whether the overlay is currently shown.
func (b *Blocker) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlayMarked
}

func (b *Blocker) report(op string, err error) {
	errors.Report(&errors.GateError{
		Op:      op,
		Kind:    errors.KindPage,
		Channel: page.ChannelName,
		Err:     err,
	})
}
