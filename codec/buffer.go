package codec

import "sync"

// plainPool holds reusable buffers for serialized payloads so plaintext
// does not linger in garbage-collected memory between calls.
var plainPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// maxPooledSize keeps oversized buffers out of the pool.
const maxPooledSize = 64 << 10

type plainBuffer struct {
	ptr *[]byte
	buf []byte
}

func acquirePlain() *plainBuffer {
	ptr := plainPool.Get().(*[]byte)
	return &plainBuffer{ptr: ptr, buf: (*ptr)[:0]}
}

// Release zeros the buffer, including anything written past len by in-place
// padding, and returns it to the pool.
func (p *plainBuffer) Release() {
	if p == nil || p.ptr == nil {
		return
	}
	full := p.buf[:cap(p.buf)]
	clear(full)
	if cap(full) <= maxPooledSize {
		*p.ptr = full[:0]
		plainPool.Put(p.ptr)
	}
	p.ptr = nil
	p.buf = nil
}
