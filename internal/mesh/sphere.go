// Package mesh builds the preview geometry shared by the software renderer
// and the glTF exporter.
package mesh

import (
	"fmt"
	"math"
)

// Mesh is an indexed triangle list with per-vertex shading attributes.
// Tangents carry handedness in W so that bitangent = cross(normal, tangent) * W.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	Tangents  [][4]float32
	UVs       [][2]float32
	Indices   []uint32
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Sphere builds a UV sphere. Texture row 0 sits at the north pole (+Y) and U
// wraps once around the equator, so the seam column is duplicated.
func Sphere(radius float64, widthSegs, heightSegs int) (*Mesh, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("mesh: sphere radius must be positive, got %f", radius)
	}
	if widthSegs < 3 || heightSegs < 2 {
		return nil, fmt.Errorf("mesh: sphere needs at least 3x2 segments, got %dx%d", widthSegs, heightSegs)
	}

	n := (widthSegs + 1) * (heightSegs + 1)
	m := &Mesh{
		Positions: make([][3]float32, 0, n),
		Normals:   make([][3]float32, 0, n),
		Tangents:  make([][4]float32, 0, n),
		UVs:       make([][2]float32, 0, n),
	}

	for iy := 0; iy <= heightSegs; iy++ {
		v := float64(iy) / float64(heightSegs)
		theta := v * math.Pi
		st, ct := math.Sin(theta), math.Cos(theta)

		for ix := 0; ix <= widthSegs; ix++ {
			u := float64(ix) / float64(widthSegs)
			phi := u * 2 * math.Pi
			sp, cp := math.Sin(phi), math.Cos(phi)

			nx, ny, nz := -cp*st, ct, sp*st
			m.Positions = append(m.Positions, [3]float32{
				float32(radius * nx), float32(radius * ny), float32(radius * nz),
			})
			m.Normals = append(m.Normals, [3]float32{float32(nx), float32(ny), float32(nz)})
			// d(position)/du, well defined at the poles too
			m.Tangents = append(m.Tangents, [4]float32{float32(sp), 0, float32(cp), 1})
			m.UVs = append(m.UVs, [2]float32{float32(u), float32(v)})
		}
	}

	row := widthSegs + 1
	for iy := 0; iy < heightSegs; iy++ {
		for ix := 0; ix < widthSegs; ix++ {
			a := uint32(iy*row + ix + 1)
			b := uint32(iy*row + ix)
			c := uint32((iy+1)*row + ix)
			d := uint32((iy+1)*row + ix + 1)

			// Pole rows collapse to a single triangle
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if iy != heightSegs-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}

	return m, nil
}
