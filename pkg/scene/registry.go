package scene

// TextureLoader decodes the texture a source reference resolves to. It
// fills in the dimensions, channel count and pixels; the registry owns the
// name, path and color space.
type TextureLoader func(path string) (Texture, error)

// TextureRegistry deduplicates the textures of one load by their raw source
// reference. Register and PromoteSRGB are the only ways adapters mutate
// Scene.Textures.
type TextureRegistry struct {
	scene  *Scene
	byName map[string]int
}

// NewTextureRegistry creates a registry that appends into s.Textures.
func NewTextureRegistry(s *Scene) *TextureRegistry {
	r := &TextureRegistry{
		scene:  s,
		byName: make(map[string]int, len(s.Textures)),
	}
	for i, t := range s.Textures {
		r.byName[t.Name] = i
	}
	return r
}

// Lookup returns the index registered for name.
func (r *TextureRegistry) Lookup(name string) (int, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Register returns the index of the texture keyed by name, decoding it from
// path with load on first reference. New entries start out Linear.
func (r *TextureRegistry) Register(name, path string, load TextureLoader) (int, error) {
	if id, ok := r.byName[name]; ok {
		return id, nil
	}
	tex, err := load(path)
	if err != nil {
		return NoTexture, err
	}
	tex.Name = name
	tex.Path = path
	tex.ColorSpace = Linear
	r.scene.Textures = append(r.scene.Textures, tex)
	id := len(r.scene.Textures) - 1
	r.byName[name] = id
	return id, nil
}

// PromoteSRGB marks texture id as gamma-encoded color data. Promotion is
// one-way; nothing demotes a texture back to Linear.
func (r *TextureRegistry) PromoteSRGB(id int) {
	if id < 0 || id >= len(r.scene.Textures) {
		return
	}
	r.scene.Textures[id].ColorSpace = SRGB
}

// Len returns the number of registered textures.
func (r *TextureRegistry) Len() int {
	return len(r.byName)
}
