package software

import "github.com/Carmen-Shannon/oxy-halo/engine/gpu"

// buffer keeps its contents in CPU memory. Render encoders copy the contents at encode time,
// so DidModify has nothing to publish.
type buffer struct {
	label    string
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
	b.contents = nil
}

func (b *buffer) snapshot() []byte {
	out := make([]byte, len(b.contents))
	copy(out, b.contents)
	return out
}
