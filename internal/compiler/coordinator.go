// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"sync"
)

// coordinator runs at most one pass at a time. A trigger that arrives while
// a pass is running cancels that pass and schedules exactly one more; any
// further triggers before it starts are absorbed.
type coordinator struct {
	parent context.Context
	pass   func(ctx context.Context)

	mu      sync.Mutex
	running bool
	rerun   bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newCoordinator(parent context.Context, pass func(ctx context.Context)) *coordinator {
	return &coordinator{parent: parent, pass: pass}
}

func (c *coordinator) trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.parent.Err() != nil {
		return
	}
	if c.running {
		c.rerun = true
		if c.cancel != nil {
			c.cancel()
		}
		return
	}

	c.running = true
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx, cancel)
}

func (c *coordinator) loop(ctx context.Context, cancel context.CancelFunc) {
	defer c.wg.Done()
	for {
		c.pass(ctx)
		cancel()

		c.mu.Lock()
		if !c.rerun || c.parent.Err() != nil {
			c.running = false
			c.rerun = false
			c.cancel = nil
			c.mu.Unlock()
			return
		}
		c.rerun = false
		ctx, cancel = context.WithCancel(c.parent)
		c.cancel = cancel
		c.mu.Unlock()
	}
}

// wait blocks until no pass is running.
func (c *coordinator) wait() {
	c.wg.Wait()
}
