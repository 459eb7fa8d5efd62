// Package pbrt imports PBRT v3/v4 scene descriptions into a flattened
// shape/object/instance graph. It tokenizes the text format, tracks the
// graphics state and transform stack, bakes each shape's transform into its
// vertices and flattens nested object instancing to a single level. It does
// not interpret materials, textures, cameras or lights beyond recording
// their names and counts.
package pbrt

import "github.com/taigrr/scenery/pkg/math3d"

// ShapeKind tags the variant stored in a Shape.
type ShapeKind int

const (
	ShapeTriangleMesh ShapeKind = iota
	ShapeQuadMesh
	ShapeOther
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeTriangleMesh:
		return "trianglemesh"
	case ShapeQuadMesh:
		return "quadmesh"
	default:
		return "other"
	}
}

// TriangleMesh is an indexed triangle list with optional per-vertex
// normals and texture coordinates.
type TriangleMesh struct {
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	UVs       []math3d.Vec2
	Indices   []int
}

// QuadMesh is an indexed bilinear patch list, four indices per quad.
type QuadMesh struct {
	Positions []math3d.Vec3
	Indices   []int
}

// Shape is one Shape directive. Exactly one of TriangleMesh and QuadMesh
// is set, matching Kind; ShapeOther carries only its Type.
type Shape struct {
	Kind         ShapeKind
	Type         string // shape type as written, e.g. "trianglemesh", "sphere"
	Material     string // material type or named material in effect
	TriangleMesh *TriangleMesh
	QuadMesh     *QuadMesh
}

// Affine is an object-to-world affine map: three linear-map columns and a
// translation.
type Affine struct {
	L [3]math3d.Vec3
	P math3d.Vec3
}

// AffineFromMat4 drops the projective row of m.
func AffineFromMat4(m math3d.Mat4) Affine {
	return Affine{
		L: [3]math3d.Vec3{m.Column(0), m.Column(1), m.Column(2)},
		P: m.Translation(),
	}
}

// Object is a named group of shapes referenced by instances.
type Object struct {
	Name   string
	Shapes []Shape
}

// Instance places a named object.
type Instance struct {
	Object string
	Xfm    Affine
}

// Scene is the flattened import result. World holds the shapes declared
// outside any object.
type Scene struct {
	World     Object
	Objects   []*Object
	Instances []Instance
	Lights    int
	Warnings  []string
}

// Object returns the object named name, or nil.
func (s *Scene) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}
