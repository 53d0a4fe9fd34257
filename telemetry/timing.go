package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/costbasis/output"
)

// TimingCollector builds a tree of timed operations. It is safe for
// concurrent use; the watch command reports while a replay may be running.
type TimingCollector struct {
	mu    sync.Mutex
	roots []*timerNode
}

// timerNode accumulates every run of an operation with the same name under
// the same parent.
type timerNode struct {
	name     string
	count    int
	total    time.Duration
	children []*timerNode
}

func (n *timerNode) child(name string) *timerNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &timerNode{name: name}
	n.children = append(n.children, c)
	return c
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins a top level operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name}
	c.roots = append(c.roots, node)
	return &timingTimer{collector: c, node: node, start: time.Now()}
}

// Report writes the timing tree of every top level operation.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		formatTimingTree(w, root, styles)
	}
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
	start     time.Time
	once      sync.Once
}

// End records the elapsed time. Only the first call counts.
func (t *timingTimer) End() {
	t.once.Do(func() {
		elapsed := time.Since(t.start)

		t.collector.mu.Lock()
		defer t.collector.mu.Unlock()
		t.node.count++
		t.node.total += elapsed
	})
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	return &timingTimer{
		collector: t.collector,
		node:      t.node.child(name),
		start:     time.Now(),
	}
}
