package preview

import (
	"image/color"
	"math"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

// Background is the clear color of a rendered frame.
var Background = color.RGBA{R: 24, G: 24, B: 32, A: 255}

const ambient = 0.12

// Stats counts the work of the last Render.
type Stats struct {
	InstancesDrawn  int
	InstancesCulled int
	Triangles       int
}

// Rasterizer draws scenes into a framebuffer with a depth buffer. Lighting
// is Lambertian from the first quad light's center, two-sided, since source
// formats disagree on winding.
type Rasterizer struct {
	fb     *Framebuffer
	zbuf   []float64
	bounds map[*scene.Geometry]AABB

	Stats Stats
}

// NewRasterizer creates a rasterizer drawing into fb.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	return &Rasterizer{
		fb:     fb,
		zbuf:   make([]float64, fb.Width*fb.Height),
		bounds: make(map[*scene.Geometry]AABB),
	}
}

// Render clears the framebuffer and draws every instance of s as seen by
// cam. Instances whose bounds fall outside the view are skipped.
func (r *Rasterizer) Render(s *scene.Scene, cam *Camera) {
	r.fb.Clear(Background)
	for i := range r.zbuf {
		r.zbuf[i] = math.Inf(1)
	}
	r.Stats = Stats{}

	viewProj := cam.ViewProjectionMatrix()
	frustum := FrustumFromMatrix(viewProj)
	light := scene.SynthesizeLight()
	if len(s.Lights) > 0 {
		light = s.Lights[0]
	}

	for _, inst := range s.Instances {
		mesh := &s.Meshes[inst.Mesh]
		nm := inst.Transform.NormalMatrix()
		drawn := false
		for gi := range mesh.Geometries {
			g := &mesh.Geometries[gi]
			if !frustum.Intersects(r.geometryBounds(g).Transform(inst.Transform)) {
				continue
			}
			drawn = true
			r.drawGeometry(s, g, inst.Transform, nm, viewProj, light)
		}
		if drawn {
			r.Stats.InstancesDrawn++
		} else {
			r.Stats.InstancesCulled++
		}
	}
}

func (r *Rasterizer) geometryBounds(g *scene.Geometry) AABB {
	if b, ok := r.bounds[g]; ok {
		return b
	}
	b := BoundsOf(g.Vertices)
	r.bounds[g] = b
	return b
}

// vertex is a corner after projection to the framebuffer.
type vertex struct {
	x, y, z float64 // screen position and NDC depth
	invW    float64
	world   math3d.Vec3
	normal  math3d.Vec3
	uv      math3d.Vec2
}

func (r *Rasterizer) drawGeometry(s *scene.Scene, g *scene.Geometry, model, normalMat, viewProj math3d.Mat4, light scene.QuadLight) {
	base := math3d.Splat3(0.8)
	var tex *scene.Texture
	if g.Material >= 0 && g.Material < len(s.Materials) {
		m := &s.Materials[g.Material]
		base = m.BaseColor
		if m.ColorTexture >= 0 && m.ColorTexture < len(s.Textures) && len(g.UVs) == len(g.Vertices) {
			tex = &s.Textures[m.ColorTexture]
		}
	}

	mvp := viewProj.Mul(model)
	w, h := float64(r.fb.Width), float64(r.fb.Height)
	for _, tri := range g.Triangles {
		var vs [3]vertex
		visible := true
		for k, idx := range tri {
			clip := mvp.MulVec4(math3d.V4FromV3(g.Vertices[idx], 1))
			if clip.W <= 1e-9 {
				visible = false
				break
			}
			ndc := clip.PerspectiveDivide()
			v := &vs[k]
			v.x = (ndc.X + 1) * 0.5 * w
			v.y = (1 - ndc.Y) * 0.5 * h
			v.z = ndc.Z
			v.invW = 1 / clip.W
			v.world = model.MulVec3(g.Vertices[idx])
			if len(g.Normals) == len(g.Vertices) {
				v.normal = normalMat.MulVec3Dir(g.Normals[idx])
			}
			if tex != nil {
				v.uv = g.UVs[idx]
			}
		}
		if !visible {
			continue
		}
		face := vs[1].world.Sub(vs[0].world).Cross(vs[2].world.Sub(vs[0].world)).Normalize()
		if len(g.Normals) != len(g.Vertices) {
			for k := range vs {
				vs[k].normal = face
			}
		}
		r.Stats.Triangles++
		r.fill(vs, func(b [3]float64) color.RGBA {
			n := vs[0].normal.Scale(b[0]).Add(vs[1].normal.Scale(b[1])).Add(vs[2].normal.Scale(b[2])).Normalize()
			p := vs[0].world.Scale(b[0]).Add(vs[1].world.Scale(b[1])).Add(vs[2].world.Scale(b[2]))
			albedo := base
			if tex != nil {
				uv := vs[0].uv.Scale(b[0]).Add(vs[1].uv.Scale(b[1])).Add(vs[2].uv.Scale(b[2]))
				albedo = albedo.Mul(sample(tex, uv.X, uv.Y))
			}
			return shade(albedo, n, p, light)
		})
	}
}

// shade returns the display color of a surface point.
func shade(albedo, n, p math3d.Vec3, light scene.QuadLight) color.RGBA {
	toLight := light.Position.Sub(p).Normalize()
	facing := math.Max(0, -toLight.Dot(light.Normal))
	diffuse := math.Abs(n.Dot(toLight)) * facing
	radiance := light.Emission.Scale(diffuse / 5).Add(math3d.Splat3(ambient))
	c := albedo.Mul(radiance)
	return color.RGBA{
		R: uint8(math.Round(linearToSRGB(c.X) * 255)),
		G: uint8(math.Round(linearToSRGB(c.Y) * 255)),
		B: uint8(math.Round(linearToSRGB(c.Z) * 255)),
		A: 255,
	}
}

// fill scan-converts one triangle with a depth test. shadeAt receives
// perspective-correct barycentric weights.
func (r *Rasterizer) fill(vs [3]vertex, shadeAt func(b [3]float64) color.RGBA) {
	area := edge(vs[0], vs[1], vs[2].x, vs[2].y)
	if area == 0 {
		return
	}
	minX := max(0, int(math.Floor(min(vs[0].x, vs[1].x, vs[2].x))))
	maxX := min(r.fb.Width-1, int(math.Ceil(max(vs[0].x, vs[1].x, vs[2].x))))
	minY := max(0, int(math.Floor(min(vs[0].y, vs[1].y, vs[2].y))))
	maxY := min(r.fb.Height-1, int(math.Ceil(max(vs[0].y, vs[1].y, vs[2].y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			l0 := edge(vs[1], vs[2], px, py) / area
			l1 := edge(vs[2], vs[0], px, py) / area
			l2 := 1 - l0 - l1
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}
			z := l0*vs[0].z + l1*vs[1].z + l2*vs[2].z
			if z < -1 || z > 1 {
				continue
			}
			i := y*r.fb.Width + x
			if z >= r.zbuf[i] {
				continue
			}
			r.zbuf[i] = z

			w0, w1, w2 := l0*vs[0].invW, l1*vs[1].invW, l2*vs[2].invW
			sum := w0 + w1 + w2
			r.fb.SetPixel(x, y, shadeAt([3]float64{w0 / sum, w1 / sum, w2 / sum}))
		}
	}
}

// edge is twice the signed area of (a, b, p).
func edge(a, b vertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}
