package software

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runTent(src []byte, r int) []byte {
	dst := make([]byte, len(src))
	tent1D(src, dst, r, make([]uint32, len(src)+r))
	return dst
}

func TestTent1DUniformIsFixedPoint(t *testing.T) {
	for _, n := range []int{1, 2, 3, 17} {
		for _, r := range []int{0, 1, 5, 30, 100} {
			for _, v := range []byte{0, 1, 128, 255} {
				src := make([]byte, n)
				for i := range src {
					src[i] = v
				}
				assert.Equal(t, src, runTent(src, r), "n=%d r=%d v=%d", n, r, v)
			}
		}
	}
}

func TestTent1DWeights(t *testing.T) {
	src := make([]byte, 11)
	src[5] = 90
	assert.Equal(t, []byte{0, 0, 0, 10, 20, 30, 20, 10, 0, 0, 0}, runTent(src, 2))
}

func TestTent1DClampsToEdge(t *testing.T) {
	assert.Equal(t, []byte{23, 68}, runTent([]byte{0, 90}, 1))
	assert.Equal(t, []byte{}, runTent([]byte{}, 3))
}
