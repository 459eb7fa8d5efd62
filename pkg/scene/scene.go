// Package scene defines the canonical in-memory scene every format loader
// produces. Cross-references between entities are plain indices so a Scene
// can be copied, serialized or handed to a renderer as flat data.
package scene

import (
	"github.com/taigrr/scenery/pkg/math3d"
)

// NoMaterial marks a Geometry that has not been assigned a material.
const NoMaterial = -1

// NoTexture marks a Material without a base color texture.
const NoTexture = -1

// Geometry is one drawable triangle set with a single material.
type Geometry struct {
	Vertices  []math3d.Vec3
	Normals   []math3d.Vec3 // empty or len(Vertices)
	UVs       []math3d.Vec2 // empty or len(Vertices)
	Triangles [][3]int      // indices into Vertices
	Material  int           // index into Scene.Materials, or NoMaterial
}

// NewGeometry creates an empty geometry with no material.
func NewGeometry() Geometry {
	return Geometry{Material: NoMaterial}
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Triangles)
}

// Mesh groups the geometries that are instanced together as one unit.
type Mesh struct {
	Name       string
	Geometries []Geometry
}

// TriangleCount returns the number of triangles over all geometries.
func (m *Mesh) TriangleCount() int {
	n := 0
	for i := range m.Geometries {
		n += m.Geometries[i].TriangleCount()
	}
	return n
}

// Instance places one Mesh into the scene.
type Instance struct {
	Transform math3d.Mat4
	Mesh      int // index into Scene.Meshes
}

// Material is a Disney-style parametric material.
type Material struct {
	Name                 string
	BaseColor            math3d.Vec3
	Metallic             float64
	Specular             float64
	Roughness            float64
	SpecularTransmission float64
	ColorTexture         int // index into Scene.Textures, or NoTexture
}

// DefaultMaterial returns the neutral material assigned to geometry the
// source file left without one.
func DefaultMaterial() Material {
	return Material{
		Name:         "default",
		BaseColor:    math3d.Splat3(0.9),
		Roughness:    1,
		ColorTexture: NoTexture,
	}
}

// ColorSpace tags how texture bytes are encoded.
type ColorSpace int

const (
	Linear ColorSpace = iota
	SRGB
)

func (c ColorSpace) String() string {
	if c == SRGB {
		return "srgb"
	}
	return "linear"
}

// Texture holds decoded 8-bit pixel data.
type Texture struct {
	Name       string // raw source reference, the dedup key
	Path       string // resolved path of the first reference
	Width      int
	Height     int
	Channels   int
	Pixels     []byte // row-major, Channels bytes per pixel
	ColorSpace ColorSpace
}

// QuadLight is a planar rectangular emitter.
type QuadLight struct {
	Emission math3d.Vec3
	Position math3d.Vec3
	Normal   math3d.Vec3
	V1, V2   math3d.Vec3 // orthonormal basis spanning the quad's plane
	Width    float64
	Height   float64
}

// Scene owns every mesh, instance, material, texture and light of one load.
type Scene struct {
	Source    string
	Meshes    []Mesh
	Instances []Instance
	Materials []Material
	Textures  []Texture
	Lights    []QuadLight
}

// New creates an empty scene for the given source file.
func New(source string) *Scene {
	return &Scene{Source: source}
}

// AddMesh appends a mesh and returns its index.
func (s *Scene) AddMesh(m Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return len(s.Meshes) - 1
}

// AddMaterial appends a material and returns its index.
func (s *Scene) AddMaterial(m Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddInstance places mesh with the given transform.
func (s *Scene) AddInstance(mesh int, transform math3d.Mat4) {
	s.Instances = append(s.Instances, Instance{Transform: transform, Mesh: mesh})
}

// UniqueTris returns the number of triangles stored in the scene, counting
// each mesh once.
func (s *Scene) UniqueTris() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].TriangleCount()
	}
	return n
}

// TotalTris returns the number of triangles after instancing.
func (s *Scene) TotalTris() int {
	n := 0
	for _, inst := range s.Instances {
		n += s.Meshes[inst.Mesh].TriangleCount()
	}
	return n
}

// GeometryCount returns the number of geometries stored in the scene.
func (s *Scene) GeometryCount() int {
	n := 0
	for i := range s.Meshes {
		n += len(s.Meshes[i].Geometries)
	}
	return n
}

// TotalGeometries returns the number of geometries after instancing.
func (s *Scene) TotalGeometries() int {
	n := 0
	for _, inst := range s.Instances {
		n += len(s.Meshes[inst.Mesh].Geometries)
	}
	return n
}

// VertexCount returns the number of vertices stored in the scene.
func (s *Scene) VertexCount() int {
	n := 0
	for i := range s.Meshes {
		for j := range s.Meshes[i].Geometries {
			n += len(s.Meshes[i].Geometries[j].Vertices)
		}
	}
	return n
}

// Bounds returns the world-space axis-aligned bounding box over all
// instanced geometry. ok is false for a scene with no vertices.
func (s *Scene) Bounds() (lo, hi math3d.Vec3, ok bool) {
	for _, inst := range s.Instances {
		mesh := &s.Meshes[inst.Mesh]
		for gi := range mesh.Geometries {
			for _, v := range mesh.Geometries[gi].Vertices {
				p := inst.Transform.MulVec3(v)
				if !ok {
					lo, hi, ok = p, p, true
					continue
				}
				lo = lo.Min(p)
				hi = hi.Max(p)
			}
		}
	}
	return lo, hi, ok
}

// AssignDefaultMaterial gives every geometry without a material the same
// default material. The default material is appended at most once and only
// when at least one geometry needs it. It returns the default material's
// index, or NoMaterial if none was needed.
func (s *Scene) AssignDefaultMaterial() int {
	id := NoMaterial
	for mi := range s.Meshes {
		for gi := range s.Meshes[mi].Geometries {
			g := &s.Meshes[mi].Geometries[gi]
			if g.Material != NoMaterial {
				continue
			}
			if id == NoMaterial {
				id = s.AddMaterial(DefaultMaterial())
			}
			g.Material = id
		}
	}
	return id
}
