// Package pool wraps sync.Pool to hand out fixed-size byte buffers, adapted
// from the teacher's instrumented pool wrapper (trimmed to drop the
// metrics-reporter indirection). No other package in this module imports it;
// the UDP reader allocates a fresh slice per datagram.
package pool

import "sync"

// BufferPool hands out byte slices of a fixed capacity for reuse across
// datagram reads, avoiding one allocation per inbound UDP packet.
type BufferPool struct {
	pool *sync.Pool
	size int
}

func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

func (p *BufferPool) Get() []byte {
	b := p.pool.Get().(*[]byte)
	return (*b)[:p.size]
}

func (p *BufferPool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	b = b[:p.size]
	p.pool.Put(&b)
}
