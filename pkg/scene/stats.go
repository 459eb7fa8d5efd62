package scene

import "fmt"

// Stats summarizes a scene.
type Stats struct {
	Meshes          int
	Instances       int
	Geometries      int
	TotalGeometries int
	UniqueTris      int
	TotalTris       int
	Vertices        int
	Materials       int
	Textures        int
	Lights          int
}

// Stats computes the summary counts for s.
func (s *Scene) Stats() Stats {
	return Stats{
		Meshes:          len(s.Meshes),
		Instances:       len(s.Instances),
		Geometries:      s.GeometryCount(),
		TotalGeometries: s.TotalGeometries(),
		UniqueTris:      s.UniqueTris(),
		TotalTris:       s.TotalTris(),
		Vertices:        s.VertexCount(),
		Materials:       len(s.Materials),
		Textures:        len(s.Textures),
		Lights:          len(s.Lights),
	}
}

func (st Stats) String() string {
	return fmt.Sprintf("%d meshes, %d instances, %d/%d geometries, %d/%d triangles (unique/total), %d vertices, %d materials, %d textures, %d lights",
		st.Meshes, st.Instances, st.Geometries, st.TotalGeometries, st.UniqueTris, st.TotalTris,
		st.Vertices, st.Materials, st.Textures, st.Lights)
}
