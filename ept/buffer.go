package ept

import "sync"

// OwnedBuffer holds the raw bytes of a node until a decode takes them. Once taken, the
// bytes belong to the decode and the OwnedBuffer is empty; the caller that built it must
// not keep using the slice it passed in.
type OwnedBuffer struct {
	mu       sync.Mutex
	data     []byte
	consumed bool
}

// NewOwnedBuffer moves data into a new OwnedBuffer.
func NewOwnedBuffer(data []byte) *OwnedBuffer {
	return &OwnedBuffer{data: data}
}

// Len returns the length of the held bytes, or 0 once consumed.
func (ob *OwnedBuffer) Len() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return len(ob.data)
}

// Consumed reports whether a decode has taken the bytes.
func (ob *OwnedBuffer) Consumed() bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.consumed
}

func (ob *OwnedBuffer) take() ([]byte, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.consumed {
		return nil, ErrBufferConsumed
	}
	data := ob.data
	ob.data = nil
	ob.consumed = true
	return data, nil
}
