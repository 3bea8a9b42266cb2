// Package notice carries short user-visible messages produced while a
// request runs, and keeps them alive across a redirect in a flash cookie.
package notice

import (
	"sync"
)

type Variant string

const (
	Default     Variant = "default"
	Destructive Variant = "destructive"
)

type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant"`
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Collector buffers notices for the lifetime of a request.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(n Notice) {
	if n.Variant == "" {
		n.Variant = Default
	}
	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
}

// Drain returns the buffered notices and empties the collector.
func (c *Collector) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}
