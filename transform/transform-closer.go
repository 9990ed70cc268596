package transform

import (
	"sync"
	"sync/atomic"
)

// TransformCloser owns the status and shutdown channels of one launched
// transform and guarantees they are closed at most once.
type TransformCloser struct {
	flagClosedChanStatusAndShutdown int32 // 0 = open; 1 = closed.
	mu                              sync.Mutex
	chanStatus                      chan TransformStatus
	chanShutdown                    chan error
}

func NewTransformCloser(chanStatus chan TransformStatus, chanShutdown chan error) *TransformCloser {
	return &TransformCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// CloseChannels sends the final status, if any, then closes both channels.
// Calling it again is a no-op.
func (c *TransformCloser) CloseChannels(statusToSend *TransformStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.LoadInt32(&c.flagClosedChanStatusAndShutdown) != 0 {
		return
	}
	if statusToSend != nil {
		c.chanStatus <- *statusToSend
	}
	close(c.chanStatus) // causes the status consumer goroutine to exit.
	close(c.chanShutdown)
	atomic.StoreInt32(&c.flagClosedChanStatusAndShutdown, 1)
}

// ChannelsAreOpen reports whether CloseChannels has run yet.
func (c *TransformCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return atomic.LoadInt32(&c.flagClosedChanStatusAndShutdown) == 0
}
