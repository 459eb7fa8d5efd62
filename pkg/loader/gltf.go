package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

var glbMagic = []byte("glTF")

// gltfImport holds the per-load state of one glTF document.
type gltfImport struct {
	l      *Loader
	doc    *gltf.Document
	dir    string
	s      *scene.Scene
	reg    *scene.TextureRegistry
	images []int // glTF image index -> scene texture index
	meshes []int // glTF mesh index -> scene mesh index, -1 when dropped
}

// loadGLTF converts every glTF mesh 1:1, in document order, into a scene
// mesh. Each node of the default scene that references a mesh then becomes
// one instance carrying the node's world transform.
func (l *Loader) loadGLTF(path string, glb bool, s *scene.Scene) error {
	if glb {
		if err := checkGLBMagic(path); err != nil {
			return l.fail(ErrParserFailure, "", err)
		}
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return l.fail(ErrParserFailure, "", err)
	}

	imp := &gltfImport{
		l:      l,
		doc:    doc,
		dir:    filepath.Dir(path),
		s:      s,
		reg:    scene.NewTextureRegistry(s),
	}
	if err := imp.loadImages(); err != nil {
		return err
	}
	if err := imp.loadMaterials(); err != nil {
		return err
	}
	if err := imp.loadMeshes(); err != nil {
		return err
	}
	return imp.walkScene()
}

func checkGLBMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var magic [4]byte
	if _, err := f.Read(magic[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(magic[:], glbMagic) {
		return fmt.Errorf("not a binary glTF container (magic %q)", magic[:])
	}
	return nil
}

// loadImages registers every image, in document order, as a linear texture.
// Images are keyed by their index since glTF names need not be unique; the
// name, or else the uri, is kept for display only.
func (imp *gltfImport) loadImages() error {
	imp.images = make([]int, len(imp.doc.Images))
	for i, img := range imp.doc.Images {
		key := fmt.Sprintf("image:%d", i)
		name := img.Name
		if name == "" && !img.IsEmbeddedResource() {
			name = img.URI
		}
		if name == "" {
			name = key
		}
		data, path, err := imp.imageData(img)
		if err != nil {
			return imp.l.fail(ErrParserFailure, name, err)
		}
		id, err := imp.reg.Register(key, path, func(string) (scene.Texture, error) {
			return decodeTexture(data)
		})
		if err != nil {
			return imp.l.fail(kindOf(err, ErrParserFailure), name, err)
		}
		imp.s.Textures[id].Name = name
		imp.images[i] = id
	}
	return nil
}

// imageData returns the encoded bytes of img and the path they came from.
func (imp *gltfImport) imageData(img *gltf.Image) ([]byte, string, error) {
	switch {
	case img.BufferView != nil:
		bv, err := imp.bufferView(*img.BufferView)
		if err != nil {
			return nil, "", err
		}
		data := imp.doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset+bv.ByteLength > len(data) {
			return nil, "", fmt.Errorf("buffer view %d exceeds buffer %d", *img.BufferView, bv.Buffer)
		}
		return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], imp.s.Source, nil
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		return data, imp.s.Source, err
	case img.URI != "":
		path := filepath.Join(imp.dir, img.URI)
		data, err := os.ReadFile(path)
		return data, path, err
	default:
		return nil, "", errors.New("image has neither a buffer view nor a uri")
	}
}

// loadMaterials translates every material 1:1, so glTF material i is scene
// material i.
func (imp *gltfImport) loadMaterials() error {
	for i, m := range imp.doc.Materials {
		mat := scene.Material{
			Name:         m.Name,
			BaseColor:    math3d.Splat3(1),
			Roughness:    1,
			Metallic:     1,
			ColorTexture: scene.NoTexture,
		}
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			c := pbr.BaseColorFactorOrDefault()
			mat.BaseColor = math3d.V3(c[0], c[1], c[2])
			mat.Metallic = pbr.MetallicFactorOrDefault()
			mat.Roughness = pbr.RoughnessFactorOrDefault()
			if ti := pbr.BaseColorTexture; ti != nil {
				id, err := imp.textureImage(ti.Index)
				if err != nil {
					return imp.l.fail(ErrParserFailure, m.Name, fmt.Errorf("material %d: %w", i, err))
				}
				imp.reg.PromoteSRGB(id)
				mat.ColorTexture = id
			}
		}
		imp.s.AddMaterial(mat)
	}
	return nil
}

func (imp *gltfImport) textureImage(tex int) (int, error) {
	if tex < 0 || tex >= len(imp.doc.Textures) {
		return scene.NoTexture, fmt.Errorf("texture %d out of range", tex)
	}
	src := imp.doc.Textures[tex].Source
	if src == nil || *src < 0 || *src >= len(imp.images) {
		return scene.NoTexture, fmt.Errorf("texture %d has no valid image source", tex)
	}
	return imp.images[*src], nil
}

// walkScene flattens the node hierarchy of the default scene, or of the
// first scene when none is declared, into world-space instances.
func (imp *gltfImport) walkScene() error {
	doc := imp.doc
	if len(doc.Scenes) == 0 {
		imp.l.warn("document declares no scenes")
		return nil
	}
	si := 0
	if doc.Scene != nil {
		si = *doc.Scene
	} else {
		Logger().Debug("no default scene, using scene 0", "file", imp.s.Source)
	}
	if si < 0 || si >= len(doc.Scenes) {
		return imp.l.fail(ErrParserFailure, "", fmt.Errorf("default scene %d out of range", si))
	}

	visiting := make(map[int]bool)
	var visit func(ni int, parent math3d.Mat4) error
	visit = func(ni int, parent math3d.Mat4) error {
		if ni < 0 || ni >= len(doc.Nodes) {
			return imp.l.fail(ErrParserFailure, "", fmt.Errorf("node %d out of range", ni))
		}
		if visiting[ni] {
			return imp.l.fail(ErrParserFailure, doc.Nodes[ni].Name, fmt.Errorf("node %d is its own ancestor", ni))
		}
		visiting[ni] = true
		defer delete(visiting, ni)

		n := doc.Nodes[ni]
		world := parent.Mul(nodeTransform(n))
		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(imp.meshes) {
				return imp.l.fail(ErrParserFailure, n.Name, fmt.Errorf("mesh %d out of range", *n.Mesh))
			}
			if mi := imp.meshes[*n.Mesh]; mi >= 0 {
				imp.s.AddInstance(mi, world)
			}
		}
		for _, c := range n.Children {
			if err := visit(c, world); err != nil {
				return err
			}
		}
		return nil
	}
	for _, ni := range doc.Scenes[si].Nodes {
		if err := visit(ni, math3d.Identity()); err != nil {
			return err
		}
	}
	return nil
}

// nodeTransform returns the node's local transform from its matrix, or from
// translation, rotation and scale when no matrix is given.
func nodeTransform(n *gltf.Node) math3d.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math3d.Mat4(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	sc := n.ScaleOrDefault()
	return math3d.Translate(math3d.V3(t[0], t[1], t[2])).
		Mul(math3d.FromQuat(r[0], r[1], r[2], r[3])).
		Mul(math3d.Scale(math3d.V3(sc[0], sc[1], sc[2])))
}

// loadMeshes converts every glTF mesh, referenced by a node or not, so that
// topology and encoding errors surface for the whole document. Meshes
// without triangles are dropped and map to -1.
func (imp *gltfImport) loadMeshes() error {
	imp.meshes = make([]int, len(imp.doc.Meshes))
	for mi, m := range imp.doc.Meshes {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh:%d", mi)
		}
		out := scene.Mesh{Name: name}
		for pi, p := range m.Primitives {
			g, err := imp.primitive(p)
			if err != nil {
				return imp.l.fail(kindOf(err, ErrParserFailure), name, fmt.Errorf("primitive %d: %w", pi, err))
			}
			if len(g.Triangles) == 0 {
				imp.l.warn("primitive has no triangles", "mesh", name, "primitive", pi)
				continue
			}
			out.Geometries = append(out.Geometries, g)
		}
		imp.meshes[mi] = -1
		if len(out.Geometries) == 0 {
			imp.l.warn("mesh has no geometry, dropping it", "mesh", name)
			continue
		}
		imp.meshes[mi] = imp.s.AddMesh(out)
	}
	return nil
}

func (imp *gltfImport) primitive(p *gltf.Primitive) (scene.Geometry, error) {
	g := scene.NewGeometry()
	if p.Mode != gltf.PrimitiveTriangles {
		return g, fmt.Errorf("%w: mode %v", ErrUnsupportedPrimitiveMode, p.Mode)
	}
	if p.Material != nil {
		if *p.Material < 0 || *p.Material >= len(imp.doc.Materials) {
			return g, fmt.Errorf("material %d out of range", *p.Material)
		}
		g.Material = *p.Material
	}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return g, errors.New("missing POSITION attribute")
	}
	positions, err := imp.positions(posIdx)
	if err != nil {
		return g, fmt.Errorf("positions: %w", err)
	}
	g.Vertices = slices.Collect(positions.Values())

	if uvIdx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := imp.texcoords(uvIdx)
		if err != nil {
			return g, fmt.Errorf("texcoords: %w", err)
		}
		if uvs.Len() != len(g.Vertices) {
			return g, fmt.Errorf("%d texcoords for %d positions", uvs.Len(), len(g.Vertices))
		}
		g.UVs = make([]math3d.Vec2, 0, uvs.Len())
		for _, uv := range uvs.All() {
			if imp.l.FlipV {
				uv.Y = 1 - uv.Y
			}
			g.UVs = append(g.UVs, uv)
		}
	}
	for attr := range p.Attributes {
		if attr != gltf.TEXCOORD_0 && strings.HasPrefix(attr, "TEXCOORD_") {
			imp.l.warn("only TEXCOORD_0 is decoded", "attribute", attr)
		}
	}

	var indices []int
	if p.Indices != nil {
		indices, err = imp.indices(*p.Indices)
		if err != nil {
			return g, err
		}
	} else {
		indices = make([]int, len(g.Vertices))
		for i := range indices {
			indices[i] = i
		}
	}
	if rem := len(indices) % 3; rem != 0 {
		if imp.l.StrictIndices {
			return g, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrMalformedIndices, len(indices))
		}
		imp.l.warn("index count not a multiple of 3, dropping partial triangle", "indices", len(indices))
		indices = indices[:len(indices)-rem]
	}
	for i := 0; i < len(indices); i += 3 {
		tri := [3]int{indices[i], indices[i+1], indices[i+2]}
		for _, idx := range tri {
			if idx >= len(g.Vertices) {
				return g, fmt.Errorf("%w: index %d out of range [0,%d)", ErrMalformedIndices, idx, len(g.Vertices))
			}
		}
		g.Triangles = append(g.Triangles, tri)
	}
	return g, nil
}

func (imp *gltfImport) bufferView(i int) (*gltf.BufferView, error) {
	if i < 0 || i >= len(imp.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", i)
	}
	bv := imp.doc.BufferViews[i]
	if bv.Buffer < 0 || bv.Buffer >= len(imp.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	return bv, nil
}

// accessorView builds a view over accessor ai. It borrows the buffer bytes
// loaded with the document.
func accessorView[T any](imp *gltfImport, ai int, decode func([]byte) T) (View[T], *gltf.Accessor, error) {
	if ai < 0 || ai >= len(imp.doc.Accessors) {
		return View[T]{}, nil, fmt.Errorf("accessor %d out of range", ai)
	}
	acc := imp.doc.Accessors[ai]
	if acc.BufferView == nil {
		return View[T]{}, acc, fmt.Errorf("accessor %d has no buffer view", ai)
	}
	bv, err := imp.bufferView(*acc.BufferView)
	if err != nil {
		return View[T]{}, acc, err
	}
	data := imp.doc.Buffers[bv.Buffer].Data
	end := min(bv.ByteOffset+bv.ByteLength, len(data))
	if bv.ByteOffset > end {
		return View[T]{}, acc, fmt.Errorf("buffer view %d starts past its buffer", *acc.BufferView)
	}
	v, err := NewView(data[bv.ByteOffset:end], acc.ByteOffset, bv.ByteStride, acc.Count,
		gltf.SizeOfElement(acc.ComponentType, acc.Type), decode)
	if err != nil {
		return View[T]{}, acc, fmt.Errorf("accessor %d: %w", ai, err)
	}
	return v, acc, nil
}

func (imp *gltfImport) positions(ai int) (View[math3d.Vec3], error) {
	if err := imp.expect(ai, gltf.AccessorVec3, gltf.ComponentFloat); err != nil {
		return View[math3d.Vec3]{}, err
	}
	v, _, err := accessorView(imp, ai, func(b []byte) math3d.Vec3 {
		f := binary.Float.Vec3(b)
		return math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	})
	return v, err
}

func (imp *gltfImport) texcoords(ai int) (View[math3d.Vec2], error) {
	if ai < 0 || ai >= len(imp.doc.Accessors) {
		return View[math3d.Vec2]{}, fmt.Errorf("accessor %d out of range", ai)
	}
	acc := imp.doc.Accessors[ai]
	if acc.Type != gltf.AccessorVec2 {
		return View[math3d.Vec2]{}, fmt.Errorf("accessor %d: type %v, want VEC2", ai, acc.Type)
	}
	var decode func([]byte) math3d.Vec2
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		decode = func(b []byte) math3d.Vec2 {
			f := binary.Float.Vec2(b)
			return math3d.V2(float64(f[0]), float64(f[1]))
		}
	case acc.ComponentType == gltf.ComponentUbyte && acc.Normalized:
		decode = func(b []byte) math3d.Vec2 {
			u := binary.Ubyte.Vec2(b)
			return math3d.V2(float64(u[0])/0xff, float64(u[1])/0xff)
		}
	case acc.ComponentType == gltf.ComponentUshort && acc.Normalized:
		decode = func(b []byte) math3d.Vec2 {
			u := binary.Ushort.Vec2(b)
			return math3d.V2(float64(u[0])/0xffff, float64(u[1])/0xffff)
		}
	default:
		return View[math3d.Vec2]{}, fmt.Errorf("accessor %d: unsupported texcoord component %v", ai, acc.ComponentType)
	}
	v, _, err := accessorView(imp, ai, decode)
	return v, err
}

// indices reads a 16 or 32 bit unsigned scalar index accessor.
func (imp *gltfImport) indices(ai int) ([]int, error) {
	if ai < 0 || ai >= len(imp.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", ai)
	}
	acc := imp.doc.Accessors[ai]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("index accessor %d: type %v, want SCALAR", ai, acc.Type)
	}
	var (
		v   View[int]
		err error
	)
	switch acc.ComponentType {
	case gltf.ComponentUshort:
		v, _, err = accessorView(imp, ai, func(b []byte) int { return int(binary.Ushort.Scalar(b)) })
	case gltf.ComponentUint:
		v, _, err = accessorView(imp, ai, func(b []byte) int { return int(binary.Uint.Scalar(b)) })
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedIndexType, acc.ComponentType)
	}
	if err != nil {
		return nil, err
	}
	return slices.Collect(v.Values()), nil
}

func (imp *gltfImport) expect(ai int, typ gltf.AccessorType, comp gltf.ComponentType) error {
	if ai < 0 || ai >= len(imp.doc.Accessors) {
		return fmt.Errorf("accessor %d out of range", ai)
	}
	acc := imp.doc.Accessors[ai]
	if acc.Type != typ || acc.ComponentType != comp {
		return fmt.Errorf("accessor %d: %v/%v, want %v/%v", ai, acc.Type, acc.ComponentType, typ, comp)
	}
	return nil
}
