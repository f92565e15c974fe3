package raster

import "math"

// Vertex is a projected mesh vertex. X and Y are in pixels, InvW is 1/depth
// from the camera and doubles as the z-buffer value (larger is nearer). The
// remaining attributes are interpolated perspective-correctly.
type Vertex struct {
	X, Y     float64
	InvW     float64
	Position [3]float64
	Normal   [3]float64
	Tangent  [4]float64
	UV       [2]float64
}

// Fragment is one covered pixel with interpolated attributes.
type Fragment struct {
	X, Y     int
	Position [3]float64
	Normal   [3]float64
	Tangent  [4]float64
	UV       [2]float64
}

// FragmentShader returns the straight-alpha color for f. Returning ok = false
// discards the fragment without touching the z-buffer.
type FragmentShader func(f *Fragment) (c [4]uint8, ok bool)

// RasterizeTriangle fills one triangle into fb with a z-test and calls shade
// for every pixel that passes.
//
// This is the hot path: no allocations inside the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, v0, v1, v2 *Vertex, shade FragmentShader) {
	x0, y0 := v0.X, v0.Y
	x1, y1 := v1.X, v1.Y
	x2, y2 := v2.X, v2.Y

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	var frag Fragment
	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centers
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -1e-6 || w1 < -1e-6 || w2 < -1e-6 {
				continue
			}

			z := w0*v0.InvW + w1*v1.InvW + w2*v2.InvW
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			// Perspective-correct weights
			p0 := w0 * v0.InvW / z
			p1 := w1 * v1.InvW / z
			p2 := w2 * v2.InvW / z

			frag.X, frag.Y = sx, sy
			for k := 0; k < 3; k++ {
				frag.Position[k] = p0*v0.Position[k] + p1*v1.Position[k] + p2*v2.Position[k]
				frag.Normal[k] = p0*v0.Normal[k] + p1*v1.Normal[k] + p2*v2.Normal[k]
			}
			for k := 0; k < 4; k++ {
				frag.Tangent[k] = p0*v0.Tangent[k] + p1*v1.Tangent[k] + p2*v2.Tangent[k]
			}
			frag.UV[0] = p0*v0.UV[0] + p1*v1.UV[0] + p2*v2.UV[0]
			frag.UV[1] = p0*v0.UV[1] + p1*v1.UV[1] + p2*v2.UV[1]

			c, ok := shade(&frag)
			if !ok {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = c[0]
			fb.Color[pxIdx+1] = c[1]
			fb.Color[pxIdx+2] = c[2]
			fb.Color[pxIdx+3] = c[3]
		}
	}
}
