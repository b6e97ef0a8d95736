package host

import (
	"fmt"
	"sync"

	"github.com/go-drift/netgate/pkg/errors"
)

// channelRegistry manages all registered host channels.
type channelRegistry struct {
	methodChannels map[string]*MethodChannel
	eventChannels  map[string]*EventChannel
	mu             sync.RWMutex
}

var registry = &channelRegistry{
	methodChannels: make(map[string]*MethodChannel),
	eventChannels:  make(map[string]*EventChannel),
}

func (r *channelRegistry) registerMethod(name string, ch *MethodChannel) {
	r.mu.Lock()
	r.methodChannels[name] = ch
	r.mu.Unlock()
}

func (r *channelRegistry) registerEvent(name string, ch *EventChannel) {
	r.mu.Lock()
	r.eventChannels[name] = ch
	r.mu.Unlock()
}

func (r *channelRegistry) getMethodChannel(name string) *MethodChannel {
	r.mu.RLock()
	ch := r.methodChannels[name]
	r.mu.RUnlock()
	return ch
}

func (r *channelRegistry) getEventChannel(name string) *EventChannel {
	r.mu.RLock()
	ch := r.eventChannels[name]
	r.mu.RUnlock()
	return ch
}

// bridge is the connection to the shell hosting the guarded page.
// This is set by SetBridge during startup.
var (
	bridge   Bridge
	bridgeMu sync.RWMutex
)

// Bridge defines the interface for calling the shell side.
type Bridge interface {
	// InvokeMethod calls a method on the shell side.
	InvokeMethod(channel, method string, args []byte) ([]byte, error)

	// StartEventStream tells the shell to start sending events for a channel.
	StartEventStream(channel string) error

	// StopEventStream tells the shell to stop sending events for a channel.
	StopEventStream(channel string) error
}

// SetBridge sets the bridge implementation. Called once during startup.
//
// After setting the bridge, SetBridge starts event streams for any event
// channels that acquired subscriptions before the bridge was available.
// Startup errors are dispatched to subscribers' error handlers.
func SetBridge(b Bridge) {
	bridgeMu.Lock()
	bridge = b
	bridgeMu.Unlock()

	registry.mu.RLock()
	channels := make([]*EventChannel, 0, len(registry.eventChannels))
	for _, ch := range registry.eventChannels {
		channels = append(channels, ch)
	}
	registry.mu.RUnlock()

	for _, ch := range channels {
		ch.mu.Lock()
		shouldStart := len(ch.subscriptions) > 0 && !ch.started
		if shouldStart {
			ch.started = true
		}
		ch.mu.Unlock()

		if shouldStart {
			if err := startEventStream(ch.name); err != nil {
				ch.mu.Lock()
				ch.started = false
				ch.mu.Unlock()
				ch.dispatchError(err)
			}
		}
	}
}

func currentBridge() Bridge {
	bridgeMu.RLock()
	b := bridge
	bridgeMu.RUnlock()
	return b
}

// invokeBridge calls a method on the shell side.
func invokeBridge(channel, method string, args any) (any, error) {
	b := currentBridge()
	if b == nil {
		return nil, ErrBridgeUnavailable
	}

	argsData, err := DefaultCodec.Encode(args)
	if err != nil {
		return nil, err
	}

	resultData, err := b.InvokeMethod(channel, method, argsData)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Decode(resultData)
}

// startEventStream notifies the shell to start sending events.
func startEventStream(channel string) error {
	b := currentBridge()
	if b == nil {
		errors.Report(&errors.GateError{
			Op:      "host.startEventStream",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     ErrBridgeUnavailable,
		})
		return ErrBridgeUnavailable
	}
	if err := b.StartEventStream(channel); err != nil {
		errors.Report(&errors.GateError{
			Op:      "host.startEventStream",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     err,
		})
		return err
	}
	return nil
}

// stopEventStream notifies the shell to stop sending events.
func stopEventStream(channel string) error {
	b := currentBridge()
	if b == nil {
		return ErrBridgeUnavailable
	}
	if err := b.StopEventStream(channel); err != nil {
		errors.Report(&errors.GateError{
			Op:      "host.stopEventStream",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     err,
		})
		return err
	}
	return nil
}

// HandleMethodCall is called from the bridge when the shell invokes a Go method.
func HandleMethodCall(channel, method string, argsData []byte) ([]byte, error) {
	ch := registry.getMethodChannel(channel)
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	args, err := DefaultCodec.Decode(argsData)
	if err != nil {
		return nil, err
	}

	result, err := ch.handleCall(method, args)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Encode(result)
}

// ErrChannelNotRegistered is returned when an event is received for an unregistered channel.
var ErrChannelNotRegistered = fmt.Errorf("event channel not registered")

// HandleEvent is called from the bridge when the shell sends an event.
func HandleEvent(channel string, eventData []byte) error {
	ch := registry.getEventChannel(channel)
	if ch == nil {
		err := fmt.Errorf("%w: %s", ErrChannelNotRegistered, channel)
		errors.Report(&errors.GateError{
			Op:      "host.HandleEvent",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     err,
		})
		return err
	}

	data, err := DefaultCodec.Decode(eventData)
	if err != nil {
		ch.dispatchError(err)
		return err
	}

	ch.dispatchEvent(data)
	return nil
}

// HandleEventError is called from the bridge when an event stream errors.
func HandleEventError(channel string, code, message string) error {
	ch := registry.getEventChannel(channel)
	if ch == nil {
		err := fmt.Errorf("%w: %s", ErrChannelNotRegistered, channel)
		errors.Report(&errors.GateError{
			Op:      "host.HandleEventError",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     err,
		})
		return err
	}

	ch.dispatchError(NewChannelError(code, message))
	return nil
}

// HandleEventDone is called from the bridge when an event stream ends.
func HandleEventDone(channel string) error {
	ch := registry.getEventChannel(channel)
	if ch == nil {
		err := fmt.Errorf("%w: %s", ErrChannelNotRegistered, channel)
		errors.Report(&errors.GateError{
			Op:      "host.HandleEventDone",
			Kind:    errors.KindBridge,
			Channel: channel,
			Err:     err,
		})
		return err
	}

	ch.dispatchDone()
	return nil
}

// ResetForTest resets all global host state for test isolation.
// It clears the bridge and removes all event subscriptions so that the
// package behaves as if freshly initialized. This should only be called
// from tests.
func ResetForTest() {
	bridgeMu.Lock()
	bridge = nil
	bridgeMu.Unlock()

	registry.mu.RLock()
	channels := make([]*EventChannel, 0, len(registry.eventChannels))
	for _, ch := range registry.eventChannels {
		channels = append(channels, ch)
	}
	registry.mu.RUnlock()

	for _, ch := range channels {
		ch.mu.Lock()
		ch.subscriptions = ch.subscriptions[:0]
		ch.started = false
		ch.mu.Unlock()
	}
}
