package llm

import (
	"sync"
)

type clientEntry struct {
	once sync.Once
	g    *Gemini
}

// Clients configures one Gemini client per api key and reuses it.
// Entries live as long as the process; a client holds no connection of its
// own, so keys typed wrong in the sidebar cost only the entry.
type Clients struct {
	opts Options
	m    sync.Map // apiKey -> *clientEntry

	build func(apiKey string, opts Options) *Gemini
}

// NewClients ...
func NewClients(opts Options) *Clients {
	return &Clients{opts: opts, build: NewGemini}
}

// ForKey returns the client bound to apiKey, creating it on first use.
func (c *Clients) ForKey(apiKey string) Generator {
	v, _ := c.m.LoadOrStore(apiKey, new(clientEntry))
	e := v.(*clientEntry)
	e.once.Do(func() {
		e.g = c.build(apiKey, c.opts)
		logger().Infow("configured model client", "model", c.opts.Model)
	})
	return e.g
}
