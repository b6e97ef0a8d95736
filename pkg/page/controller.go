// Package page exposes generic append-only DOM operations on the guarded
// page. The page's own styling and layout remain the host's concern; this
// package only appends identified nodes and toggles class markers through
// the host bridge.
package page

import (
	"fmt"

	"github.com/go-drift/netgate/pkg/host"
)

// ChannelName is the host method channel used for page operations.
const ChannelName = "netgate/page"

// RootTarget addresses the page's root element in class operations.
const RootTarget = "root"

// Controller performs DOM operations on the guarded page.
//
// All operations are single-instance by contract: appending an element whose
// id already exists is a shell-side no-op, so callers may treat Append* as
// idempotent. All methods are safe for concurrent use.
type Controller struct {
	channel *host.MethodChannel
}

// NewController creates a controller for the guarded page.
func NewController() *Controller {
	return &Controller{
		channel: host.NewMethodChannel(ChannelName),
	}
}

// AppendStyle appends a style block with the given id to the page head.
// No-op on the shell side if an element with that id already exists.
func (c *Controller) AppendStyle(id, css string) error {
	if id == "" {
		return fmt.Errorf("page: style id must not be empty")
	}
	_, err := c.channel.Invoke("appendStyle", map[string]any{
		"id":  id,
		"css": css,
	})
	return err
}

// AppendElement appends an element with the given id and inner HTML to the
// page body. No-op on the shell side if an element with that id already
// exists.
func (c *Controller) AppendElement(id, html string) error {
	if id == "" {
		return fmt.Errorf("page: element id must not be empty")
	}
	_, err := c.channel.Invoke("appendElement", map[string]any{
		"id":   id,
		"html": html,
	})
	return err
}

// HasElement reports whether an element with the given id exists in the page.
func (c *Controller) HasElement(id string) (bool, error) {
	result, err := c.channel.Invoke("hasElement", map[string]any{
		"id": id,
	})
	if err != nil {
		return false, err
	}
	m, ok := result.(map[string]any)
	if !ok {
		return false, fmt.Errorf("page: unexpected hasElement response: %T", result)
	}
	present, ok := m["present"].(bool)
	if !ok {
		return false, fmt.Errorf("page: hasElement response missing present flag")
	}
	return present, nil
}

// AddClass adds a class to the element with the given id, or to the page
// root when target is RootTarget. Adding an already-present class is a
// shell-side no-op.
func (c *Controller) AddClass(target, class string) error {
	_, err := c.channel.Invoke("addClass", map[string]any{
		"target": target,
		"class":  class,
	})
	return err
}

// RemoveClass removes a class from the element with the given id, or from
// the page root when target is RootTarget. Removing an absent class is a
// shell-side no-op.
func (c *Controller) RemoveClass(target, class string) error {
	_, err := c.channel.Invoke("removeClass", map[string]any{
		"target": target,
		"class":  class,
	})
	return err
}
