package watch

import "github.com/go-drift/netgate/pkg/host"

// ControlChannelName is the host method channel the shell uses to inspect
// the running watcher.
const ControlChannelName = "netgate/control"

// RegisterControl exposes the watcher to shell-initiated calls. The "state"
// method returns the session id, the last observed permission state, and
// whether the session is active.
func RegisterControl(w *Watcher) *host.MethodChannel {
	ch := host.NewMethodChannel(ControlChannelName)
	ch.SetHandler(func(method string, args any) (any, error) {
		switch method {
		case "state":
			s := w.Session()
			return map[string]any{
				"session": s.ID(),
				"state":   string(s.LastState()),
				"active":  s.Active(),
			}, nil
		default:
			return nil, host.ErrMethodNotFound
		}
	})
	return ch
}
