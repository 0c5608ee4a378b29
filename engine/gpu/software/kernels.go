package software

import "github.com/Carmen-Shannon/oxy-halo/common"

// matteConvert copies the matte at texture 0 into a white halo at texture 1 as (m,m,m,m)
// and a yellow halo at texture 2 as (m,m,0,m). Threads outside the matte return early.
func matteConvert(x, y int, textures *textureArguments) {
	matte, white, yellow := textures[0], textures[1], textures[2]
	if matte == nil || x >= matte.width || y >= matte.height {
		return
	}
	m := matte.byteAt(x, y)
	if white != nil && x < white.width && y < white.height {
		white.setTexel(x, y, [4]uint8{m, m, m, m})
	}
	if yellow != nil && x < yellow.width && y < yellow.height {
		yellow.setTexel(x, y, [4]uint8{m, m, 0, m})
	}
}

// compositeImageVertexTransform passes the image plane quad through: buffer 0 holds
// interleaved {x, y, u, v} float32 vertices.
func compositeImageVertexTransform(vid int, buffers [][]float32) vertexOutput {
	if len(buffers) == 0 || len(buffers[0]) < (vid+1)*4 {
		return vertexOutput{}
	}
	v := buffers[0][vid*4 : vid*4+4]
	return vertexOutput{
		position: [4]float32{v[0], v[1], 0, 1},
		texCoord: [2]float32{v[2], v[3]},
	}
}

// compositeImageFragmentShader converts the camera's full range BT.601 YCbCr to RGB and lays
// the yellow then the white halo over it outside the matte.
// Textures: 0 luma, 1 chroma, 2 white halo, 3 yellow halo, 4 matte.
func compositeImageFragmentShader(tc [2]float32, textures *textureArguments) [4]float32 {
	y := sample(textures[0], tc)[0]
	cbcr := sample(textures[1], tc)
	cb, cr := cbcr[0]-0.5, cbcr[1]-0.5

	rgb := [3]float32{
		y + 1.402*cr,
		y - 0.344136*cb - 0.714136*cr,
		y + 1.772*cb,
	}

	white := sample(textures[2], tc)
	yellow := sample(textures[3], tc)
	outside := 1 - sample(textures[4], tc)[0]

	for i := range rgb {
		rgb[i] = rgb[i]*(1-yellow[3]*outside) + yellow[i]*outside
		rgb[i] = rgb[i]*(1-white[3]*outside) + white[i]*outside
	}
	return [4]float32{common.Clamp01(rgb[0]), common.Clamp01(rgb[1]), common.Clamp01(rgb[2]), 1}
}
