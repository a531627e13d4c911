package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/viewnudge/pkg/math3d"
)

// Box is an axis-aligned bounding box in a node's local space.
type Box struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// Center returns the center of the box.
func (b Box) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b Box) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box holding both boxes.
func (b Box) Union(o Box) Box {
	return Box{
		Min: math3d.V3(min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y), min(b.Min.Z, o.Min.Z)),
		Max: math3d.V3(max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y), max(b.Max.Z, o.Max.Z)),
	}
}

// Corners returns the 8 corners, back face first, counter-clockwise from
// bottom-left.
func (b Box) Corners() [8]math3d.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]math3d.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
}

// boxOf returns the bounds of points.
func boxOf(points []math3d.Vec3) (Box, bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Union(Box{Min: p, Max: p})
	}
	return b, true
}

// meshBounds returns the union of the POSITION bounds of a mesh's
// primitives. The accessor min/max is used when present, otherwise the
// positions are read.
func meshBounds(doc *gltf.Document, m *gltf.Mesh) (*Box, error) {
	var out *Box
	for _, prim := range m.Primitives {
		idx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if idx < 0 || idx >= len(doc.Accessors) {
			return nil, fmt.Errorf("position accessor %d out of range", idx)
		}

		var b Box
		acc := doc.Accessors[idx]
		if len(acc.Min) == 3 && len(acc.Max) == 3 {
			b = Box{
				Min: math3d.V3(acc.Min[0], acc.Min[1], acc.Min[2]),
				Max: math3d.V3(acc.Max[0], acc.Max[1], acc.Max[2]),
			}
		} else {
			positions, err := readVec3Accessor(doc, acc)
			if err != nil {
				return nil, fmt.Errorf("read positions: %w", err)
			}
			var ok bool
			if b, ok = boxOf(positions); !ok {
				continue
			}
		}

		if out == nil {
			out = &b
		} else {
			u := out.Union(b)
			out = &u
		}
	}
	return out, nil
}

// readVec3Accessor reads float VEC3 data from an accessor.
func readVec3Accessor(doc *gltf.Document, acc *gltf.Accessor) ([]math3d.Vec3, error) {
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v of %v", acc.Type, acc.ComponentType)
	}
	if acc.BufferView == nil || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := view.ByteOffset + acc.ByteOffset
	stride := view.ByteStride
	if stride == 0 {
		stride = 12 // 3 floats * 4 bytes
	}
	if acc.Count > 0 && start+(acc.Count-1)*stride+12 > len(data) {
		return nil, fmt.Errorf("accessor overruns its buffer")
	}

	out := make([]math3d.Vec3, acc.Count)
	for i := range acc.Count {
		off := start + i*stride
		out[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return out, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// appendBoxMesh stores the corners of b as a point primitive and returns
// the new mesh.
func appendBoxMesh(doc *gltf.Document, name string, b Box) *gltf.Mesh {
	if len(doc.Buffers) == 0 {
		doc.Buffers = []*gltf.Buffer{{}}
	}
	buf := doc.Buffers[0]

	offset := len(buf.Data)
	for _, c := range b.Corners() {
		for _, f := range []float64{c.X, c.Y, c.Z} {
			buf.Data = binary.LittleEndian.AppendUint32(buf.Data, math.Float32bits(float32(f)))
		}
	}
	buf.ByteLength = len(buf.Data)

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: len(buf.Data) - offset,
		Target:     gltf.TargetArrayBuffer,
	})
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(len(doc.BufferViews) - 1),
		ComponentType: gltf.ComponentFloat,
		Count:         8,
		Type:          gltf.AccessorVec3,
		Min:           []float64{b.Min.X, b.Min.Y, b.Min.Z},
		Max:           []float64{b.Max.X, b.Max.Y, b.Max.Z},
	})

	return &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Mode:       gltf.PrimitivePoints,
			Attributes: map[string]int{gltf.POSITION: len(doc.Accessors) - 1},
		}},
	}
}
