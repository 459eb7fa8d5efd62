package loader

import (
	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/pbrt"
	"github.com/taigrr/scenery/pkg/scene"
)

// loadPBRT converts a PBRT scene, text or prebuilt binary, into instanced
// meshes. Each object becomes at most one mesh, shared by all of its
// instances.
func (l *Loader) loadPBRT(path string, prebuilt bool, s *scene.Scene) error {
	read := pbrt.ReadFile
	if prebuilt {
		read = pbrt.ReadBinaryFile
	}
	ps, err := read(path)
	if err != nil {
		return l.fail(ErrParserFailure, "", err)
	}
	for _, w := range ps.Warnings {
		l.warn("pbrt importer", "detail", w)
	}
	if ps.Lights > 0 {
		l.warn("light sources are not imported", "count", ps.Lights)
	}

	objects := make(map[string]int) // object name -> mesh index, -1 when dropped
	for _, inst := range ps.Instances {
		mi, ok := objects[inst.Object]
		if !ok {
			mi = -1
			if o := ps.Object(inst.Object); o != nil {
				mi = l.pbrtObject(o, s)
			} else {
				l.warn("instance of unknown object", "object", inst.Object)
			}
			objects[inst.Object] = mi
		}
		if mi < 0 {
			continue
		}
		x := inst.Xfm
		s.AddInstance(mi, math3d.FromAffine(x.L[0], x.L[1], x.L[2], x.P))
	}

	l.pbrtRoot(&ps.World, s)
	return nil
}

// pbrtObject converts o into a mesh and returns its index, or -1 when o
// holds no supported shape.
func (l *Loader) pbrtObject(o *pbrt.Object, s *scene.Scene) int {
	m := scene.Mesh{Name: o.Name}
	for _, sh := range o.Shapes {
		if g, ok := l.pbrtShape(o.Name, sh); ok {
			m.Geometries = append(m.Geometries, g)
		}
	}
	if len(m.Geometries) == 0 {
		l.warn("object has no supported shapes, dropping it", "object", o.Name)
		return -1
	}
	return s.AddMesh(m)
}

func (l *Loader) pbrtShape(object string, sh pbrt.Shape) (scene.Geometry, bool) {
	switch sh.Kind {
	case pbrt.ShapeTriangleMesh:
		tm := sh.TriangleMesh
		g := scene.NewGeometry()
		g.Vertices = append(g.Vertices, tm.Positions...)
		if len(tm.Normals) == len(tm.Positions) {
			g.Normals = make([]math3d.Vec3, len(tm.Normals))
			for i, n := range tm.Normals {
				g.Normals[i] = n.Normalize()
			}
		}
		if len(tm.UVs) == len(tm.Positions) {
			g.UVs = append(g.UVs, tm.UVs...)
		}
		g.Triangles = make([][3]int, 0, len(tm.Indices)/3)
		for i := 0; i+2 < len(tm.Indices); i += 3 {
			g.Triangles = append(g.Triangles, [3]int{tm.Indices[i], tm.Indices[i+1], tm.Indices[i+2]})
		}
		return g, true
	case pbrt.ShapeQuadMesh:
		l.warn("quad meshes are not supported, skipping shape", "object", object, "shape", sh.Type)
	default:
		l.warn("unsupported shape, skipping it", "object", object, "shape", sh.Type)
	}
	return scene.Geometry{}, false
}

// pbrtRoot handles shapes declared outside any object. They are only
// reported unless PBRTRootShapes is set.
func (l *Loader) pbrtRoot(world *pbrt.Object, s *scene.Scene) {
	if len(world.Shapes) == 0 {
		return
	}
	if !l.PBRTRootShapes {
		counts := make(map[string]int)
		for _, sh := range world.Shapes {
			counts[sh.Kind.String()]++
		}
		for kind, n := range counts {
			Logger().Info("root-level shapes not converted", "file", l.path, "kind", kind, "count", n)
		}
		return
	}
	world.Name = "world"
	if mi := l.pbrtObject(world, s); mi >= 0 {
		s.AddInstance(mi, math3d.Identity())
	}
}
