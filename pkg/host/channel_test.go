package host

import (
	"errors"
	"sync"
	"testing"

	neterrors "github.com/go-drift/netgate/pkg/errors"
)

// fakeBridge answers invokes with a canned response and records stream
// lifecycle calls.
type fakeBridge struct {
	response []byte
	err      error

	mu      sync.Mutex
	invokes []string
	started []string
	stopped []string
}

func (b *fakeBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	b.mu.Lock()
	b.invokes = append(b.invokes, channel+"/"+method)
	b.mu.Unlock()
	return b.response, b.err
}

func (b *fakeBridge) StartEventStream(channel string) error {
	b.mu.Lock()
	b.started = append(b.started, channel)
	b.mu.Unlock()
	return nil
}

func (b *fakeBridge) StopEventStream(channel string) error {
	b.mu.Lock()
	b.stopped = append(b.stopped, channel)
	b.mu.Unlock()
	return nil
}

func (b *fakeBridge) startedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.started)
}

func (b *fakeBridge) stoppedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stopped)
}

// quietHandler silences error reports for tests that provoke them on purpose.
type quietHandler struct{}

func (quietHandler) HandleError(*neterrors.GateError) {}
func (quietHandler) HandlePanic(*neterrors.PanicError) {}

func silenceReports(t *testing.T) {
	t.Helper()
	neterrors.SetHandler(quietHandler{})
	t.Cleanup(func() { neterrors.SetHandler(nil) })
}

func TestMethodChannelInvoke(t *testing.T) {
	t.Cleanup(ResetForTest)
	SetBridge(&fakeBridge{response: []byte(`{"status":"granted"}`)})

	ch := NewMethodChannel("test/invoke")
	result, err := ch.Invoke("check", map[string]any{"permission": "local-network"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	m, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", result)
	}
	if m["status"] != "granted" {
		t.Errorf("status = %v, want granted", m["status"])
	}
}

func TestMethodChannelInvokeWithoutBridge(t *testing.T) {
	t.Cleanup(ResetForTest)

	ch := NewMethodChannel("test/no-bridge")
	_, err := ch.Invoke("check", nil)
	if !errors.Is(err, ErrBridgeUnavailable) {
		t.Errorf("err = %v, want ErrBridgeUnavailable", err)
	}
}

func TestHandleMethodCall(t *testing.T) {
	t.Cleanup(ResetForTest)

	ch := NewMethodChannel("test/inbound")
	ch.SetHandler(func(method string, args any) (any, error) {
		if method != "ping" {
			return nil, ErrMethodNotFound
		}
		m := args.(map[string]any)
		return map[string]any{"echo": m["msg"]}, nil
	})

	result, err := HandleMethodCall("test/inbound", "ping", []byte(`{"msg":"hi"}`))
	if err != nil {
		t.Fatalf("HandleMethodCall: %v", err)
	}
	if string(result) != `{"echo":"hi"}` {
		t.Errorf("result = %s, want echo payload", result)
	}

	if _, err := HandleMethodCall("test/inbound", "nope", []byte(`{}`)); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("unknown method err = %v, want ErrMethodNotFound", err)
	}
	if _, err := HandleMethodCall("test/absent", "ping", []byte(`{}`)); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("unknown channel err = %v, want ErrChannelNotFound", err)
	}
}

func TestEventChannelListenAndDispatch(t *testing.T) {
	t.Cleanup(ResetForTest)
	bridge := &fakeBridge{}
	SetBridge(bridge)

	ch := NewEventChannel("test/events")

	var got []any
	sub := ch.Listen(EventHandler{
		OnEvent: func(data any) { got = append(got, data) },
	})

	if bridge.startedCount() != 1 {
		t.Fatalf("stream starts = %d, want 1", bridge.startedCount())
	}

	// Second listener must not restart the stream.
	sub2 := ch.Listen(EventHandler{})
	if bridge.startedCount() != 1 {
		t.Errorf("stream starts after second listener = %d, want 1", bridge.startedCount())
	}

	if err := HandleEvent("test/events", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("events delivered = %d, want 1", len(got))
	}
	if m := got[0].(map[string]any); m["n"] != float64(1) {
		t.Errorf("event payload = %v", got[0])
	}

	// Stream stops only when the last subscription is gone.
	sub2.Cancel()
	if bridge.stoppedCount() != 0 {
		t.Errorf("stream stops with a listener left = %d, want 0", bridge.stoppedCount())
	}
	sub.Cancel()
	if bridge.stoppedCount() != 1 {
		t.Errorf("stream stops = %d, want 1", bridge.stoppedCount())
	}

	// Canceled subscriptions receive nothing.
	if err := HandleEvent("test/events", []byte(`{"n":2}`)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("events after cancel = %d, want 1", len(got))
	}
}

func TestHandleEventUnregisteredChannel(t *testing.T) {
	t.Cleanup(ResetForTest)
	silenceReports(t)

	err := HandleEvent("test/never-registered", []byte(`{}`))
	if !errors.Is(err, ErrChannelNotRegistered) {
		t.Errorf("err = %v, want ErrChannelNotRegistered", err)
	}
}

func TestSetBridgeStartsPendingStreams(t *testing.T) {
	t.Cleanup(ResetForTest)
	silenceReports(t)

	ch := NewEventChannel("test/pending")

	var streamErrs []error
	ch.Listen(EventHandler{
		OnError: func(err error) { streamErrs = append(streamErrs, err) },
	})

	// No bridge yet: the listen attempt fails but the subscription stays.
	if len(streamErrs) != 1 || !errors.Is(streamErrs[0], ErrBridgeUnavailable) {
		t.Fatalf("stream errors = %v, want one ErrBridgeUnavailable", streamErrs)
	}

	bridge := &fakeBridge{}
	SetBridge(bridge)

	if bridge.startedCount() != 1 {
		t.Errorf("stream starts after SetBridge = %d, want 1", bridge.startedCount())
	}
}

func TestSubscriptionCancelIsIdempotent(t *testing.T) {
	t.Cleanup(ResetForTest)
	bridge := &fakeBridge{}
	SetBridge(bridge)

	ch := NewEventChannel("test/cancel")
	sub := ch.Listen(EventHandler{})

	sub.Cancel()
	sub.Cancel()

	if !sub.IsCanceled() {
		t.Error("IsCanceled() = false after Cancel")
	}
	if bridge.stoppedCount() != 1 {
		t.Errorf("stream stops = %d, want 1", bridge.stoppedCount())
	}
}

func TestDispatchDoneEndsAllSubscriptions(t *testing.T) {
	t.Cleanup(ResetForTest)
	bridge := &fakeBridge{}
	SetBridge(bridge)

	ch := NewEventChannel("test/done")

	doneCalls := 0
	sub := ch.Listen(EventHandler{
		OnDone: func() { doneCalls++ },
	})

	if err := HandleEventDone("test/done"); err != nil {
		t.Fatalf("HandleEventDone: %v", err)
	}
	if doneCalls != 1 {
		t.Errorf("OnDone calls = %d, want 1", doneCalls)
	}
	if !sub.IsCanceled() {
		t.Error("subscription still live after done")
	}
}
