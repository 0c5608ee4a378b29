package webgpu

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// buffer keeps its contents in CPU memory. Render encoders upload a snapshot into a
// per-draw vertex buffer, so a committed frame never sees later writes.
type buffer struct {
	label    string
	mu       *sync.Mutex
	contents []byte
}

var _ gpu.Buffer = &buffer{}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Len() int {
	return len(b.contents)
}

func (b *buffer) Contents() []byte {
	return b.contents
}

func (b *buffer) DidModify() {}

func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contents = nil
}

func (b *buffer) snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.contents))
	copy(out, b.contents)
	return out
}
