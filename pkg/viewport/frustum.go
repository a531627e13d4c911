package viewport

import "github.com/taigrr/viewnudge/pkg/math3d"

// Plane is the plane Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// normalize scales the plane equation so the normal has unit length.
func (p *Plane) normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// Distance returns the signed distance from the plane to point.
// Positive is on the side the normal points to.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six inward-facing planes of a view volume, ordered
// left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// Frustum extracts the view volume of the snapshot from its view-projection
// matrix (Gribb/Hartmann).
func (s State) Frustum() Frustum {
	m := s.ViewProjection()
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m.Get(i, 0), m.Get(i, 1), m.Get(i, 2)), m.Get(i, 3)
	}

	n3, d3 := row(3)
	var f Frustum
	for i := range 3 {
		n, d := row(i)
		f.Planes[2*i] = Plane{Normal: n3.Add(n), D: d3 + d}
		f.Planes[2*i+1] = Plane{Normal: n3.Sub(n), D: d3 - d}
	}
	for i := range f.Planes {
		f.Planes[i].normalize()
	}
	return f
}

// ContainsPoint reports whether p is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// OnScreen reports whether p lies inside the [0,Width]x[0,Height] rectangle.
func (s State) OnScreen(p math3d.Vec2) bool {
	return p.X >= 0 && p.X <= float64(s.Width) && p.Y >= 0 && p.Y <= float64(s.Height)
}
