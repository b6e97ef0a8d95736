package overlay

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-drift/netgate/pkg/errors"
	"github.com/go-drift/netgate/pkg/host"
	"github.com/go-drift/netgate/pkg/page"
)

// recordingPage records every page operation as "op:target" strings.
// Individual operations can be made to fail via failOn.
type recordingPage struct {
	mu     sync.Mutex
	ops    []string
	fail   bool
	failOn map[string]bool
}

func (p *recordingPage) add(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail || p.failOn[op] {
		return fmt.Errorf("page unavailable")
	}
	p.ops = append(p.ops, op)
	return nil
}

func (p *recordingPage) setFailOn(op string, fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn == nil {
		p.failOn = make(map[string]bool)
	}
	p.failOn[op] = fail
}

func (p *recordingPage) count(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, rec := range p.ops {
		if rec == op {
			n++
		}
	}
	return n
}

func (p *recordingPage) AppendStyle(id, css string) error {
	return p.add("style:" + id)
}

func (p *recordingPage) AppendElement(id, html string) error {
	return p.add("element:" + id)
}

func (p *recordingPage) AddClass(target, class string) error {
	return p.add("addClass:" + target + ":" + class)
}

func (p *recordingPage) RemoveClass(target, class string) error {
	return p.add("removeClass:" + target + ":" + class)
}

func (p *recordingPage) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ops))
	copy(out, p.ops)
	return out
}

func newInjectedBlocker(t *testing.T) (*Blocker, *recordingPage) {
	t.Helper()
	pg := &recordingPage{}
	b := NewBlocker(pg)
	if err := b.EnsureStyles(); err != nil {
		t.Fatalf("EnsureStyles: %v", err)
	}
	if err := b.EnsureDialog(); err != nil {
		t.Fatalf("EnsureDialog: %v", err)
	}
	return b, pg
}

func TestEnsureInjectsOnce(t *testing.T) {
	pg := &recordingPage{}
	b := NewBlocker(pg)

	for i := 0; i < 3; i++ {
		if err := b.EnsureStyles(); err != nil {
			t.Fatalf("EnsureStyles: %v", err)
		}
		if err := b.EnsureDialog(); err != nil {
			t.Fatalf("EnsureDialog: %v", err)
		}
	}

	want := []string{"style:" + StyleID, "element:" + OverlayID}
	got := pg.recorded()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("page ops = %v, want %v", got, want)
	}
}

func TestShowBeforeInjectionIsNoOp(t *testing.T) {
	pg := &recordingPage{}
	b := NewBlocker(pg)

	b.Show()
	b.Hide()

	if ops := pg.recorded(); len(ops) != 0 {
		t.Errorf("page ops before injection = %v, want none", ops)
	}
	if b.Visible() {
		t.Error("Visible() = true before injection")
	}
}

func TestShowHideCycle(t *testing.T) {
	b, pg := newInjectedBlocker(t)

	b.Show()
	b.Show()
	if !b.Visible() {
		t.Fatal("Visible() = false after Show")
	}

	b.Hide()
	b.Hide()
	if b.Visible() {
		t.Fatal("Visible() = true after Hide")
	}

	b.Show()

	want := []string{
		"style:" + StyleID,
		"element:" + OverlayID,
		"addClass:" + page.RootTarget + ":" + BlockedClass,
		"addClass:" + OverlayID + ":" + VisibleClass,
		"removeClass:" + OverlayID + ":" + VisibleClass,
		"removeClass:" + page.RootTarget + ":" + BlockedClass,
		"addClass:" + page.RootTarget + ":" + BlockedClass,
		"addClass:" + OverlayID + ":" + VisibleClass,
	}
	got := pg.recorded()
	if len(got) != len(want) {
		t.Fatalf("page ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// failHandler swallows reports so failing-page tests stay quiet.
type failHandler struct{}

func (failHandler) HandleError(*errors.GateError) {}
func (failHandler) HandlePanic(*errors.PanicError) {}

func TestShowFailureLeavesHidden(t *testing.T) {
	errors.SetHandler(failHandler{})
	t.Cleanup(func() { errors.SetHandler(nil) })

	b, pg := newInjectedBlocker(t)
	pg.mu.Lock()
	pg.fail = true
	pg.mu.Unlock()

	b.Show()

	if b.Visible() {
		t.Error("Visible() = true after failed Show")
	}

	// Recovery: once the page works again, Show succeeds.
	pg.mu.Lock()
	pg.fail = false
	pg.mu.Unlock()
	b.Show()
	if !b.Visible() {
		t.Error("Visible() = false after recovered Show")
	}
}

func TestShowPartialFailureIsClearedByHide(t *testing.T) {
	errors.SetHandler(failHandler{})
	t.Cleanup(func() { errors.SetHandler(nil) })

	b, pg := newInjectedBlocker(t)

	// The root marker lands but the overlay marker fails: the page is
	// blurred with no visible dialog.
	pg.setFailOn("addClass:"+OverlayID+":"+VisibleClass, true)
	b.Show()

	if b.Visible() {
		t.Error("Visible() = true after partially failed Show")
	}
	if pg.count("addClass:"+page.RootTarget+":"+BlockedClass) != 1 {
		t.Fatal("root marker was not applied")
	}

	// Hide must remove the root marker even though the overlay marker was
	// never applied; otherwise the page stays blocked after a grant.
	b.Hide()

	if pg.count("removeClass:"+page.RootTarget+":"+BlockedClass) != 1 {
		t.Error("blocked marker never removed after Hide; page would stay blocked")
	}

	// The repaired blocker shows normally once the page cooperates again.
	pg.setFailOn("addClass:"+OverlayID+":"+VisibleClass, false)
	b.Show()
	if !b.Visible() {
		t.Error("Visible() = false after recovered Show")
	}
}

func TestHidePartialFailureIsClearedByShow(t *testing.T) {
	errors.SetHandler(failHandler{})
	t.Cleanup(func() { errors.SetHandler(nil) })

	b, pg := newInjectedBlocker(t)
	b.Show()

	// The overlay marker comes off but the root removal fails: the dialog
	// is gone while the page is still blurred.
	pg.setFailOn("removeClass:"+page.RootTarget+":"+BlockedClass, true)
	b.Hide()

	if b.Visible() {
		t.Error("Visible() = true after Hide removed the overlay marker")
	}

	// A later Show must bring the overlay marker back without doubling the
	// still-present root marker.
	pg.setFailOn("removeClass:"+page.RootTarget+":"+BlockedClass, false)
	b.Show()

	if !b.Visible() {
		t.Error("Visible() = false after Show following a partial Hide")
	}
	if got := pg.count("addClass:" + page.RootTarget + ":" + BlockedClass); got != 1 {
		t.Errorf("root marker applied %d times, want 1", got)
	}
	if got := pg.count("addClass:" + OverlayID + ":" + VisibleClass); got != 2 {
		t.Errorf("overlay marker applied %d times, want 2", got)
	}

	// And the next Hide clears everything.
	b.Hide()
	if pg.count("removeClass:"+page.RootTarget+":"+BlockedClass) != 1 {
		t.Error("root marker not removed by the retried Hide")
	}
}

func TestBlockerOverRealController(t *testing.T) {
	host.SetupTestBridge(t.Cleanup)

	b := NewBlocker(page.NewController())
	if err := b.EnsureStyles(); err != nil {
		t.Fatalf("EnsureStyles: %v", err)
	}
	if err := b.EnsureDialog(); err != nil {
		t.Fatalf("EnsureDialog: %v", err)
	}

	b.Show()
	if !b.Visible() {
		t.Error("Visible() = false after Show")
	}
	b.Hide()
	if b.Visible() {
		t.Error("Visible() = true after Hide")
	}
}

func TestOverlayCSSReferencesMarkers(t *testing.T) {
	for _, marker := range []string{OverlayID, BlockedClass, VisibleClass} {
		if !strings.Contains(overlayCSS, marker) {
			t.Errorf("overlay CSS does not mention %q", marker)
		}
	}
	if !strings.Contains(dialogHTML, "Local network permission required") {
		t.Error("dialog HTML missing its heading text")
	}
}
