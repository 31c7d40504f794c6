package gui

import (
	"errors"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/herofield/internal/render"
)

var (
	ErrShader = errors.New("gui: shader failed to compile")
	ErrClosed = errors.New("gui: surface closed")
)

var ColBg = rl.NewColor(6, 6, 10, 255)

type passShader struct {
	shader     rl.Shader
	resolution int32
	time       int32
}

// Surface draws the field into an offscreen render texture sized at the
// effective pixel ratio, runs the post-processing passes by ping-ponging
// between two textures and blits the result to the window.
//
// It must be created and used on the thread that owns the window.
type Surface struct {
	scene, ping rl.RenderTexture2D
	texW, texH  int32
	ratio       float64

	passes map[render.Pass]passShader
	glow   rl.Texture2D
	final  rl.Texture2D

	// Overlay runs after the frame is blitted, before it is presented.
	Overlay func()
	closed  bool
}

func NewSurface() (*Surface, error) {
	s := &Surface{passes: make(map[render.Pass]passShader, len(passSources))}

	for pass, src := range passSources {
		shader := rl.LoadShaderFromMemory("", src)
		if !rl.IsShaderValid(shader) {
			s.Close()
			return nil, fmt.Errorf("%w: %s", ErrShader, pass)
		}
		s.passes[pass] = passShader{
			shader:     shader,
			resolution: rl.GetShaderLocation(shader, "resolution"),
			time:       rl.GetShaderLocation(shader, "time"),
		}
	}

	img := rl.GenImageGradientRadial(16, 16, 0, rl.White, rl.NewColor(0, 0, 0, 0))
	s.glow = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(s.glow, rl.FilterBilinear)
	return s, nil
}

// DevicePixelRatio is the window's DPI scale.
func (s *Surface) DevicePixelRatio() float64 {
	return float64(rl.GetWindowScaleDPI().X)
}

func (s *Surface) Size() (int, int) {
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

func (s *Surface) BeginFrame(ratio float64) error {
	if s.closed {
		return ErrClosed
	}
	w, h := s.Size()
	s.ratio = ratio
	s.resize(int32(math.Round(float64(w)*ratio)), int32(math.Round(float64(h)*ratio)))

	rl.BeginTextureMode(s.scene)
	rl.ClearBackground(ColBg)
	rl.EndTextureMode()
	s.final = s.scene.Texture
	return nil
}

func (s *Surface) DrawPoints(points []render.Point, _ float64) error {
	rl.BeginTextureMode(s.scene)
	rl.BeginBlendMode(rl.BlendAdditive)
	src := rl.NewRectangle(0, 0, float32(s.glow.Width), float32(s.glow.Height))
	r := float32(s.ratio)
	for _, p := range points {
		size := p.Size * 3
		dst := rl.NewRectangle(p.X*r-size/2, p.Y*r-size/2, size, size)
		rl.DrawTexturePro(s.glow, src, dst, rl.Vector2{}, 0, rl.NewColor(p.Color.R, p.Color.G, p.Color.B, p.Color.A))
	}
	rl.EndBlendMode()
	rl.EndTextureMode()
	return nil
}

// Composite applies passes in order. Each pass reads the previous
// result and writes the other texture.
func (s *Surface) Composite(passes []render.Pass, elapsed float64) error {
	src, dst := s.scene, s.ping
	resolution := []float32{float32(s.texW), float32(s.texH)}
	for _, pass := range passes {
		ps, ok := s.passes[pass]
		if !ok {
			return fmt.Errorf("gui: no shader for %s", pass)
		}
		rl.SetShaderValue(ps.shader, ps.resolution, resolution, rl.ShaderUniformVec2)
		rl.SetShaderValue(ps.shader, ps.time, []float32{float32(elapsed)}, rl.ShaderUniformFloat)

		rl.BeginTextureMode(dst)
		rl.ClearBackground(rl.Blank)
		rl.BeginShaderMode(ps.shader)
		rl.DrawTextureRec(src.Texture, flipped(src.Texture), rl.Vector2{}, rl.White)
		rl.EndShaderMode()
		rl.EndTextureMode()
		src, dst = dst, src
	}
	s.final = src.Texture
	return nil
}

// EndFrame presents the last composited texture scaled to the window.
func (s *Surface) EndFrame() error {
	w, h := s.Size()
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	rl.DrawTexturePro(s.final, flipped(s.final), rl.NewRectangle(0, 0, float32(w), float32(h)), rl.Vector2{}, 0, rl.White)
	if s.Overlay != nil {
		s.Overlay()
	}
	rl.EndDrawing()
	return nil
}

// Close releases every GPU resource. The window stays open.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, ps := range s.passes {
		rl.UnloadShader(ps.shader)
	}
	s.passes = nil
	if s.texW > 0 {
		rl.UnloadRenderTexture(s.scene)
		rl.UnloadRenderTexture(s.ping)
	}
	if s.glow.ID != 0 {
		rl.UnloadTexture(s.glow)
	}
	return nil
}

func (s *Surface) resize(w, h int32) {
	w, h = max(w, 1), max(h, 1)
	if w == s.texW && h == s.texH {
		return
	}
	if s.texW > 0 {
		rl.UnloadRenderTexture(s.scene)
		rl.UnloadRenderTexture(s.ping)
	}
	s.scene = rl.LoadRenderTexture(w, h)
	s.ping = rl.LoadRenderTexture(w, h)
	s.texW, s.texH = w, h
}

// flipped is the source rectangle for a render texture, which raylib
// stores upside down.
func flipped(t rl.Texture2D) rl.Rectangle {
	return rl.NewRectangle(0, 0, float32(t.Width), -float32(t.Height))
}
