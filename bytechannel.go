package glyphterm

import (
	"context"
	"sync"
)

// DefaultChannelDepth is the default number of queued chunks.
const DefaultChannelDepth = 64

type chunk struct {
	data []byte
	eof  bool
}

// ByteChannel is a bounded queue of output chunks from reader goroutines
// to the render thread. Push blocks when the queue is full so no bytes
// are dropped. Drain never blocks.
type ByteChannel struct {
	ch        chan chunk
	closed    chan struct{}
	closeOnce sync.Once

	// consumer side only
	ended bool
}

// NewByteChannel creates a channel holding up to depth chunks.
func NewByteChannel(depth int) *ByteChannel {
	if depth <= 0 {
		depth = DefaultChannelDepth
	}
	return &ByteChannel{
		ch:     make(chan chunk, depth),
		closed: make(chan struct{}),
	}
}

// Push enqueues p, blocking while the queue is full. It returns
// ErrChannelClosed once the consumer has closed the channel, or the
// context error if ctx ends first. The caller must not reuse p.
func (c *ByteChannel) Push(ctx context.Context, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return c.send(ctx, chunk{data: p})
}

// PushEOF enqueues the end-of-stream marker. Chunks pushed earlier are
// drained before it.
func (c *ByteChannel) PushEOF(ctx context.Context) error {
	return c.send(ctx, chunk{eof: true})
}

func (c *ByteChannel) send(ctx context.Context, ck chunk) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	select {
	case c.ch <- ck:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain returns every chunk currently queued, concatenated, and whether
// the end-of-stream marker has been seen. After the marker or Close,
// Drain returns immediately with eof set.
func (c *ByteChannel) Drain() (data []byte, eof bool) {
	if c.ended {
		return nil, true
	}
	for {
		select {
		case ck := <-c.ch:
			if ck.eof {
				c.ended = true
				return data, true
			}
			if data == nil {
				data = ck.data
			} else {
				data = append(data, ck.data...)
			}
		case <-c.closed:
			c.ended = true
			return data, true
		default:
			return data, false
		}
	}
}

// Ended reports whether Drain has observed end of stream.
func (c *ByteChannel) Ended() bool {
	return c.ended
}

// Close unblocks pending and future pushes. It is safe to call more than
// once and from any goroutine.
func (c *ByteChannel) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}
