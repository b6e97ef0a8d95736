package host

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/go-drift/netgate/pkg/errors"
)

// socketFrame is the wire format exchanged with the shell.
// Frames are sent as text WebSocket messages containing JSON.
type socketFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Method  string          `json:"method,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ChannelError   `json:"error,omitempty"`
}

// Frame types understood by the shell.
const (
	frameCall     = "call"
	frameResult   = "result"
	frameEvent    = "event"
	frameError    = "error"
	frameDone     = "done"
	frameListen   = "listen"
	frameUnlisten = "unlisten"
)

type callResult struct {
	data []byte
	err  error
}

// SocketBridge implements Bridge over a WebSocket connection to the shell
// hosting the guarded page. Method calls are correlated by UUID; events and
// stream errors are dispatched to the channel registry.
//
// All methods are safe for concurrent use.
type SocketBridge struct {
	conn *websocket.Conn
	ctx  context.Context

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan callResult

	doneCh    chan struct{}
	closeOnce sync.Once
}

// Dial connects to the shell's bridge endpoint and returns a connected bridge.
// The ctx parameter is used for the dial and for all subsequent read/write
// operations on the connection.
func Dial(ctx context.Context, url string) (*SocketBridge, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewSocketBridge(ctx, conn), nil
}

// NewSocketBridge wraps an existing WebSocket connection as a Bridge.
func NewSocketBridge(ctx context.Context, conn *websocket.Conn) *SocketBridge {
	b := &SocketBridge{
		conn:    conn,
		ctx:     ctx,
		pending: make(map[string]chan callResult),
		doneCh:  make(chan struct{}),
	}

	go b.readLoop()

	return b
}

// readLoop reads frames from the shell and dispatches them.
func (b *SocketBridge) readLoop() {
	defer b.Close()

	for {
		_, data, err := b.conn.Read(b.ctx)
		if err != nil {
			// Normal closure is not an error worth reporting
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			errors.Report(&errors.GateError{
				Op:   "host.socketRead",
				Kind: errors.KindBridge,
				Err:  err,
			})
			return
		}

		var frame socketFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			errors.Report(&errors.GateError{
				Op:   "host.socketDecode",
				Kind: errors.KindParsing,
				Err:  err,
			})
			continue
		}

		b.dispatch(frame)
	}
}

func (b *SocketBridge) dispatch(frame socketFrame) {
	switch frame.Type {
	case frameResult:
		b.pendingMu.Lock()
		ch, ok := b.pending[frame.ID]
		delete(b.pending, frame.ID)
		b.pendingMu.Unlock()
		if !ok {
			return
		}
		if frame.Error != nil {
			ch <- callResult{err: frame.Error}
			return
		}
		ch <- callResult{data: frame.Result}

	case frameEvent:
		HandleEvent(frame.Channel, frame.Data)

	case frameError:
		code, message := "stream_error", ""
		if frame.Error != nil {
			code, message = frame.Error.Code, frame.Error.Message
		}
		HandleEventError(frame.Channel, code, message)

	case frameDone:
		HandleEventDone(frame.Channel)

	case frameCall:
		// Shell-initiated call into Go
		result, err := HandleMethodCall(frame.Channel, frame.Method, frame.Args)
		reply := socketFrame{Type: frameResult, ID: frame.ID}
		if err != nil {
			reply.Error = NewChannelError("go_error", err.Error())
		} else {
			reply.Result = result
		}
		if err := b.writeFrame(reply); err != nil {
			errors.Report(&errors.GateError{
				Op:      "host.socketReply",
				Kind:    errors.KindBridge,
				Channel: frame.Channel,
				Err:     err,
			})
		}
	}
}

// writeFrame sends a frame as a text WebSocket message. Thread-safe via mutex.
func (b *SocketBridge) writeFrame(frame socketFrame) error {
	select {
	case <-b.doneCh:
		return ErrClosed
	default:
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.Write(b.ctx, websocket.MessageText, data)
}

// InvokeMethod calls a method on the shell side and blocks until the shell
// responds, the bridge closes, or the bridge context is canceled.
func (b *SocketBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	id := uuid.NewString()
	resultCh := make(chan callResult, 1)

	b.pendingMu.Lock()
	b.pending[id] = resultCh
	b.pendingMu.Unlock()

	frame := socketFrame{
		Type:    frameCall,
		ID:      id,
		Channel: channel,
		Method:  method,
		Args:    args,
	}
	if err := b.writeFrame(frame); err != nil {
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		return nil, err
	}

	select {
	case result := <-resultCh:
		return result.data, result.err
	case <-b.doneCh:
		return nil, ErrClosed
	case <-b.ctx.Done():
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		return nil, b.ctx.Err()
	}
}

// StartEventStream tells the shell to start sending events for a channel.
func (b *SocketBridge) StartEventStream(channel string) error {
	return b.writeFrame(socketFrame{Type: frameListen, Channel: channel})
}

// StopEventStream tells the shell to stop sending events for a channel.
func (b *SocketBridge) StopEventStream(channel string) error {
	return b.writeFrame(socketFrame{Type: frameUnlisten, Channel: channel})
}

// Close sends a close frame and shuts down the bridge. Pending calls fail
// with ErrClosed. Safe to call multiple times.
func (b *SocketBridge) Close() error {
	b.closeOnce.Do(func() {
		close(b.doneCh)

		b.pendingMu.Lock()
		for id, ch := range b.pending {
			delete(b.pending, id)
			ch <- callResult{err: ErrClosed}
		}
		b.pendingMu.Unlock()

		b.conn.Close(websocket.StatusNormalClosure, "")
	})
	return nil
}
