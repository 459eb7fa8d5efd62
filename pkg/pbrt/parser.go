package pbrt

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/taigrr/scenery/pkg/math3d"
)

// maxIncludeDepth bounds Include/Import recursion.
const maxIncludeDepth = 16

type graphicsState struct {
	ctm      math3d.Mat4
	material string
}

type parser struct {
	scene       *Scene
	gs          graphicsState
	stack       []graphicsState
	namedCoords map[string]math3d.Mat4
	object      *Object // open ObjectBegin, if any
	depth       int
}

// ReadFile parses the PBRT scene at path, following Include and Import
// directives relative to the including file.
func ReadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := newParser()
	if err := p.parse(path, data); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

// Parse parses PBRT source from r. name is used in error messages and as
// the base for relative includes.
func Parse(r io.Reader, name string) (*Scene, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	p := newParser()
	if err := p.parse(name, buf.Bytes()); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

func newParser() *parser {
	return &parser{
		scene:       &Scene{World: Object{Name: "world"}},
		gs:          graphicsState{ctm: math3d.Identity()},
		namedCoords: make(map[string]math3d.Mat4),
	}
}

func (p *parser) finish() *Scene {
	if p.object != nil {
		p.warnf("object %q never closed with ObjectEnd", p.object.Name)
		p.closeObject()
	}
	return p.scene
}

func (p *parser) warnf(format string, args ...any) {
	p.scene.Warnings = append(p.scene.Warnings, fmt.Sprintf(format, args...))
}

func (p *parser) parse(file string, src []byte) error {
	toks, err := tokenize(file, src)
	if err != nil {
		return err
	}
	for i := 0; i < len(toks); {
		if toks[i].kind != tokIdent {
			return &SyntaxError{File: file, Line: toks[i].line, Msg: fmt.Sprintf("expected directive, got %q", toks[i].text)}
		}
		d, next, err := readDirective(file, toks, i)
		if err != nil {
			return err
		}
		if err := p.apply(file, &d); err != nil {
			return err
		}
		i = next
	}
	return nil
}

func (p *parser) errorf(file string, d *directive, format string, args ...any) error {
	return &SyntaxError{File: file, Line: d.line, Msg: d.name + ": " + fmt.Sprintf(format, args...)}
}

func (p *parser) needNumbers(file string, d *directive, n int) error {
	if len(d.numbers) != n {
		return p.errorf(file, d, "expected %d numbers, got %d", n, len(d.numbers))
	}
	return nil
}

func (p *parser) concat(m math3d.Mat4) {
	p.gs.ctm = p.gs.ctm.Mul(m)
}

func (p *parser) apply(file string, d *directive) error {
	switch d.name {
	case "Include", "Import":
		return p.include(file, d)

	case "Identity":
		p.gs.ctm = math3d.Identity()
	case "Translate":
		if err := p.needNumbers(file, d, 3); err != nil {
			return err
		}
		p.concat(math3d.Translate(vec3At(d.numbers, 0)))
	case "Scale":
		if err := p.needNumbers(file, d, 3); err != nil {
			return err
		}
		p.concat(math3d.Scale(vec3At(d.numbers, 0)))
	case "Rotate":
		if err := p.needNumbers(file, d, 4); err != nil {
			return err
		}
		p.concat(math3d.Rotate(vec3At(d.numbers, 1), d.numbers[0]*math.Pi/180))
	case "LookAt":
		if err := p.needNumbers(file, d, 9); err != nil {
			return err
		}
		p.concat(lookAt(vec3At(d.numbers, 0), vec3At(d.numbers, 3), vec3At(d.numbers, 6)))
	case "Transform", "ConcatTransform":
		if err := p.needNumbers(file, d, 16); err != nil {
			return err
		}
		var m math3d.Mat4
		copy(m[:], d.numbers)
		if d.name == "Transform" {
			p.gs.ctm = m
		} else {
			p.concat(m)
		}
	case "CoordinateSystem":
		if name, ok := d.firstString(); ok {
			p.namedCoords[name] = p.gs.ctm
		}
	case "CoordSysTransform":
		name, _ := d.firstString()
		m, ok := p.namedCoords[name]
		if !ok {
			p.warnf("%s:%d: unknown coordinate system %q", file, d.line, name)
			break
		}
		p.gs.ctm = m

	case "WorldBegin":
		p.namedCoords["camera"] = p.gs.ctm.Inverse()
		p.gs.ctm = math3d.Identity()
	case "WorldEnd":

	case "AttributeBegin", "TransformBegin":
		p.stack = append(p.stack, p.gs)
	case "AttributeEnd", "TransformEnd":
		if !p.pop() {
			p.warnf("%s:%d: unmatched %s", file, d.line, d.name)
		}

	case "ObjectBegin":
		name, ok := d.firstString()
		if !ok {
			return p.errorf(file, d, "missing object name")
		}
		if p.object != nil {
			return p.errorf(file, d, "object %q started inside object %q", name, p.object.Name)
		}
		p.stack = append(p.stack, p.gs)
		p.object = &Object{Name: name}
	case "ObjectEnd":
		if p.object == nil {
			p.warnf("%s:%d: ObjectEnd outside of an object", file, d.line)
			break
		}
		p.closeObject()
	case "ObjectInstance":
		name, ok := d.firstString()
		if !ok {
			return p.errorf(file, d, "missing object name")
		}
		p.instance(file, d, name)

	case "Shape":
		return p.shape(file, d)

	case "Material", "NamedMaterial":
		p.gs.material, _ = d.firstString()
	case "LightSource", "AreaLightSource":
		p.scene.Lights++
	}
	// Camera, Film, Sampler, Integrator, Texture, MakeNamedMaterial and
	// the rest carry nothing the flattened graph records.
	return nil
}

func (p *parser) pop() bool {
	if len(p.stack) == 0 {
		return false
	}
	p.gs = p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return true
}

func (p *parser) closeObject() {
	p.scene.Objects = append(p.scene.Objects, p.object)
	p.object = nil
	p.pop()
}

func (p *parser) include(file string, d *directive) error {
	name, ok := d.firstString()
	if !ok {
		return p.errorf(file, d, "missing file name")
	}
	if p.depth >= maxIncludeDepth {
		return p.errorf(file, d, "include depth exceeds %d", maxIncludeDepth)
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(file), name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p.errorf(file, d, "%v", err)
	}
	p.depth++
	defer func() { p.depth-- }()
	return p.parse(path, data)
}

// instance records an ObjectInstance. Inside an open object the referenced
// object's shapes are copied in under the current transform, so the result
// never nests instancing.
func (p *parser) instance(file string, d *directive, name string) {
	obj := p.scene.Object(name)
	if obj == nil {
		p.warnf("%s:%d: instance of unknown object %q", file, d.line, name)
		return
	}
	if p.object == nil {
		p.scene.Instances = append(p.scene.Instances, Instance{Object: name, Xfm: AffineFromMat4(p.gs.ctm)})
		return
	}
	for _, s := range obj.Shapes {
		p.object.Shapes = append(p.object.Shapes, transformShape(s, p.gs.ctm))
	}
}

func (p *parser) shape(file string, d *directive) error {
	typ, ok := d.firstString()
	if !ok {
		return p.errorf(file, d, "missing shape type")
	}
	s := Shape{Type: typ, Material: p.gs.material}
	switch typ {
	case "trianglemesh":
		tm, err := p.triangleMesh(file, d)
		if err != nil {
			return err
		}
		s.Kind = ShapeTriangleMesh
		s.TriangleMesh = tm
	case "bilinearmesh", "quadmesh":
		s.Kind = ShapeQuadMesh
		s.QuadMesh = &QuadMesh{Positions: p.points(d, "P")}
		if ip := d.param("indices"); ip != nil {
			s.QuadMesh.Indices = toInts(ip.numbers)
		}
	default:
		s.Kind = ShapeOther
	}
	s = transformShape(s, p.gs.ctm)
	if p.object != nil {
		p.object.Shapes = append(p.object.Shapes, s)
	} else {
		p.scene.World.Shapes = append(p.scene.World.Shapes, s)
	}
	return nil
}

func (p *parser) points(d *directive, name string) []math3d.Vec3 {
	pp := d.param(name)
	if pp == nil {
		return nil
	}
	pts := make([]math3d.Vec3, len(pp.numbers)/3)
	for i := range pts {
		pts[i] = vec3At(pp.numbers, i*3)
	}
	return pts
}

func (p *parser) triangleMesh(file string, d *directive) (*TriangleMesh, error) {
	tm := &TriangleMesh{
		Positions: p.points(d, "P"),
		Normals:   p.points(d, "N"),
	}
	if len(tm.Positions) == 0 {
		return nil, p.errorf(file, d, "trianglemesh without \"P\"")
	}
	if ip := d.param("indices"); ip != nil {
		tm.Indices = toInts(ip.numbers)
	} else if len(tm.Positions) == 3 {
		tm.Indices = []int{0, 1, 2}
	}
	if len(tm.Indices)%3 != 0 {
		return nil, p.errorf(file, d, "%d indices is not a multiple of 3", len(tm.Indices))
	}
	for _, idx := range tm.Indices {
		if idx < 0 || idx >= len(tm.Positions) {
			return nil, p.errorf(file, d, "index %d out of range [0,%d)", idx, len(tm.Positions))
		}
	}
	if len(tm.Normals) != 0 && len(tm.Normals) != len(tm.Positions) {
		p.warnf("%s:%d: %d normals for %d positions, dropping normals", file, d.line, len(tm.Normals), len(tm.Positions))
		tm.Normals = nil
	}
	if up := d.param("uv", "st"); up != nil {
		uvs := make([]math3d.Vec2, len(up.numbers)/2)
		for i := range uvs {
			uvs[i] = math3d.V2(up.numbers[i*2], up.numbers[i*2+1])
		}
		if len(uvs) == len(tm.Positions) {
			tm.UVs = uvs
		} else {
			p.warnf("%s:%d: %d uvs for %d positions, dropping uvs", file, d.line, len(uvs), len(tm.Positions))
		}
	}
	return tm, nil
}

// transformShape returns a copy of s with m applied to its vertices.
func transformShape(s Shape, m math3d.Mat4) Shape {
	if m.IsIdentity() {
		return s
	}
	switch s.Kind {
	case ShapeTriangleMesh:
		src := s.TriangleMesh
		tm := &TriangleMesh{
			Positions: make([]math3d.Vec3, len(src.Positions)),
			Indices:   src.Indices,
			UVs:       src.UVs,
		}
		for i, v := range src.Positions {
			tm.Positions[i] = m.MulVec3(v)
		}
		if len(src.Normals) > 0 {
			nm := m.NormalMatrix()
			tm.Normals = make([]math3d.Vec3, len(src.Normals))
			for i, n := range src.Normals {
				tm.Normals[i] = nm.MulVec3Dir(n).Normalize()
			}
		}
		s.TriangleMesh = tm
	case ShapeQuadMesh:
		src := s.QuadMesh
		qm := &QuadMesh{Positions: make([]math3d.Vec3, len(src.Positions)), Indices: src.Indices}
		for i, v := range src.Positions {
			qm.Positions[i] = m.MulVec3(v)
		}
		s.QuadMesh = qm
	}
	return s
}

// lookAt returns the world-from-camera inverse for a left-handed camera at
// eye looking toward look.
func lookAt(eye, look, up math3d.Vec3) math3d.Mat4 {
	dir := look.Sub(eye).Normalize()
	right := up.Normalize().Cross(dir)
	if right.Len() == 0 {
		return math3d.Identity()
	}
	right = right.Normalize()
	newUp := dir.Cross(right)
	return math3d.FromAffine(right, newUp, dir, eye).Inverse()
}

func vec3At(f []float64, i int) math3d.Vec3 {
	return math3d.V3(f[i], f[i+1], f[i+2])
}

func toInts(f []float64) []int {
	out := make([]int, len(f))
	for i, v := range f {
		out[i] = int(v)
	}
	return out
}
