package permission

import (
	"context"

	"github.com/go-drift/netgate/pkg/errors"
	"github.com/go-drift/netgate/pkg/host"
)

// ChannelName is the host method channel used for permission queries.
const ChannelName = "netgate/permissions"

// LocalNetwork is the permission netgate guards by default.
const LocalNetwork = "local-network"

// Oracle answers the current state of a single named permission.
//
// Implementations never fail outward: when the underlying capability is
// unavailable or a query errors, they report StateUnknown and log the
// failure for diagnostics only.
type Oracle interface {
	// Query performs one fresh read of the permission's current state.
	// Note: ctx is accepted for API consistency but the channel call relies
	// on the bridge's own resolution.
	Query(ctx context.Context) State
}

// ChannelOracle is an Oracle backed by a host method channel.
type ChannelOracle struct {
	name    string
	channel *host.MethodChannel
}

// NewChannelOracle creates an oracle for the named permission.
func NewChannelOracle(name string) *ChannelOracle {
	return &ChannelOracle{
		name:    name,
		channel: host.NewMethodChannel(ChannelName),
	}
}

// Name returns the permission name this oracle observes.
func (o *ChannelOracle) Name() string {
	return o.name
}

// Query reads the permission's current state from the host. Capability
// absence and query failure are both reported as StateUnknown.
func (o *ChannelOracle) Query(ctx context.Context) State {
	result, err := o.channel.Invoke("check", map[string]any{
		"permission": o.name,
	})
	if err != nil {
		errors.Report(&errors.GateError{
			Op:      "permission.query",
			Kind:    errors.KindPermission,
			Channel: ChannelName,
			Err:     err,
		})
		return StateUnknown
	}

	m, ok := result.(map[string]any)
	if !ok {
		errors.Report(&errors.GateError{
			Op:      "permission.query",
			Kind:    errors.KindParsing,
			Channel: ChannelName,
			Err: &errors.ParseError{
				Channel:  ChannelName,
				DataType: "PermissionStatus",
				Got:      result,
			},
		})
		return StateUnknown
	}

	status, _ := m["status"].(string)
	return parseState(status)
}
