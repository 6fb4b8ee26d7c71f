package types

import "github.com/go-gl/mathgl/mgl32"

// Plane is defined by dot(Normal, p) + D = 0. Points with a positive
// signed distance lie outside the plane.
type Plane struct {
	Normal Vec3
	D      float32
}

// Create a plane from a normal and a point lying on it.
func PlaneFromPoint(normal, point Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// Return the signed distance of p from the plane.
func (p Plane) Distance(pt Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Return a copy of the plane with a unit length normal.
func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l < floatCmpEpsilon {
		return p
	}
	inv := 1.0 / l
	return Plane{Normal: p.Normal.Mul(inv), D: p.D * inv}
}

// Extract the six frustum planes (left, right, bottom, top, near, far)
// from a combined view-projection matrix. Plane normals point away from
// the frustum volume.
func FrustumPlanes(viewProj mgl32.Mat4) []Plane {
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[i+4], viewProj[i+8], viewProj[i+12]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	combine := func(sign float32, r [4]float32) Plane {
		// Inward plane is r3 + sign*r; negate it to point outwards.
		return Plane{
			Normal: Vec3{
				-(r3[0] + sign*r[0]),
				-(r3[1] + sign*r[1]),
				-(r3[2] + sign*r[2]),
			},
			D: -(r3[3] + sign*r[3]),
		}.Normalize()
	}

	return []Plane{
		combine(1, r0),
		combine(-1, r0),
		combine(1, r1),
		combine(-1, r1),
		combine(1, r2),
		combine(-1, r2),
	}
}
