package permission

import (
	"sync"

	"github.com/go-drift/netgate/pkg/errors"
	"github.com/go-drift/netgate/pkg/host"
)

// ChangesChannelName is the host event channel carrying push notifications
// for permission state changes.
const ChangesChannelName = "netgate/permissions/changes"

var (
	changesOnce    sync.Once
	changesChannel *host.EventChannel
)

func getChangesChannel() *host.EventChannel {
	changesOnce.Do(func() {
		changesChannel = host.NewEventChannel(ChangesChannelName)
	})
	return changesChannel
}

// Change is a host-pushed permission state change.
type Change struct {
	Permission string
	State      State
}

// Listen subscribes to host-pushed changes for the named permission.
// Pushes supplement polling: they shorten reaction latency when the shell
// supports them, and a shell that never pushes is fully supported.
// Returns an unsubscribe function. Multiple listeners receive all events.
func Listen(name string, handler func(Change)) (unsubscribe func()) {
	sub := getChangesChannel().Listen(host.EventHandler{
		OnEvent: func(data any) {
			change, ok := parseChange(data)
			if !ok {
				errors.Report(&errors.GateError{
					Op:      "permission.parseChange",
					Kind:    errors.KindParsing,
					Channel: ChangesChannelName,
					Err: &errors.ParseError{
						Channel:  ChangesChannelName,
						DataType: "PermissionChange",
						Got:      data,
					},
				})
				return
			}
			if change.Permission == name {
				handler(change)
			}
		},
		OnError: func(err error) {
			errors.Report(&errors.GateError{
				Op:      "permission.changeStream",
				Kind:    errors.KindPermission,
				Channel: ChangesChannelName,
				Err:     err,
			})
		},
	})
	return sub.Cancel
}

func parseChange(data any) (Change, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return Change{}, false
	}
	name, _ := m["permission"].(string)
	if name == "" {
		return Change{}, false
	}
	status, _ := m["status"].(string)
	return Change{Permission: name, State: parseState(status)}, true
}
