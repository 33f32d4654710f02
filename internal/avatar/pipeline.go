// Package avatar turns a user-selected image plus a crop/scale/rotate gesture
// into a fixed-format avatar bitmap.
package avatar

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxOutputPixels = 40_000_000
	DefaultMaxSourcePixels = 50_000_000
)

type Config struct {
	Aspect           float64 `mapstructure:"aspect"`
	MinWidth         float64 `mapstructure:"min_width"`
	MinHeight        float64 `mapstructure:"min_height"`
	Quality          int     `mapstructure:"quality"`
	MaxDisplayWidth  int     `mapstructure:"max_display_width"`
	MaxDisplayHeight int     `mapstructure:"max_display_height"`
	MaxOutputPixels  int64   `mapstructure:"max_output_pixels"`
	// MaxSourcePixels bounds the declared size of a source before it is
	// decoded.
	MaxSourcePixels int64 `mapstructure:"max_source_pixels"`
	// ClampCrop makes UpdateCrop enforce the minimum size and display bounds.
	// Without it the region is stored as given.
	ClampCrop bool `mapstructure:"clamp_crop"`
}

func DefaultConfig() Config {
	return Config{
		Aspect:          1,
		MinWidth:        200,
		MinHeight:       200,
		Quality:         DefaultQuality,
		MaxOutputPixels: DefaultMaxOutputPixels,
		MaxSourcePixels: DefaultMaxSourcePixels,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Aspect == 0 {
		c.Aspect = d.Aspect
	}
	if c.MinWidth == 0 {
		c.MinWidth = d.MinWidth
	}
	if c.MinHeight == 0 {
		c.MinHeight = d.MinHeight
	}
	if c.Quality == 0 {
		c.Quality = d.Quality
	}
	if c.MaxOutputPixels == 0 {
		c.MaxOutputPixels = d.MaxOutputPixels
	}
	if c.MaxSourcePixels == 0 {
		c.MaxSourcePixels = d.MaxSourcePixels
	}
	return c
}

func (c Config) Validate() error {
	if math.IsNaN(c.Aspect) || math.IsInf(c.Aspect, 0) || c.Aspect <= 0 {
		return fmt.Errorf("%w: aspect must be positive", ErrInvalidConfig)
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return fmt.Errorf("%w: minimum size must be non-negative", ErrInvalidConfig)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be within 1..100", ErrInvalidConfig)
	}
	if c.MaxDisplayWidth < 0 || c.MaxDisplayHeight < 0 {
		return fmt.Errorf("%w: display bounds must be non-negative", ErrInvalidConfig)
	}
	if c.MaxOutputPixels < 0 || c.MaxSourcePixels < 0 {
		return fmt.Errorf("%w: pixel limits must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Viewport describes how the source is displayed while the user crops it.
// An unset display size falls back to the natural size fitted into the
// configured display bounds.
type Viewport struct {
	DisplayWidth  float64
	DisplayHeight float64
}

type SourceImage struct {
	Image         image.Image
	Format        string
	NaturalWidth  int
	NaturalHeight int
	DisplayWidth  float64
	DisplayHeight float64
}

func (s *SourceImage) Display() Size {
	return Size{Width: s.DisplayWidth, Height: s.DisplayHeight}
}

// ScaleFactors returns natural/display for each axis.
func (s *SourceImage) ScaleFactors() (float64, float64) {
	return float64(s.NaturalWidth) / s.DisplayWidth, float64(s.NaturalHeight) / s.DisplayHeight
}

type Artifact struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
}

func (a *Artifact) Reader() io.Reader {
	return bytes.NewReader(a.Data)
}

type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateCropping
	StateRendering
	StateDone
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateCropping:
		return "cropping"
	case StateRendering:
		return "rendering"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Option func(*Pipeline)

func WithSurface(s Surface) Option {
	return func(p *Pipeline) { p.surface = s }
}

func WithEncoder(e Encoder) Option {
	return func(p *Pipeline) { p.encoder = e }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline creates edit sessions. It remembers only its latest session so a
// new Initialize can cancel the previous one.
type Pipeline struct {
	cfg     Config
	surface Surface
	encoder Encoder
	now     func() time.Time

	mu      sync.Mutex
	current *Session
}

func New(cfg Config, opts ...Option) (*Pipeline, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		surface: NewRasterSurface(cfg.MaxOutputPixels),
		encoder: JPEGEncoder{Quality: cfg.Quality},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// Initialize decodes r and opens a new session with a centered initial crop.
func (p *Pipeline) Initialize(ctx context.Context, r io.Reader, vp Viewport) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := decode(r, p.cfg.MaxSourcePixels)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.start(img, format, vp)
}

// InitializeImage opens a session over an already decoded image.
func (p *Pipeline) InitializeImage(img image.Image, vp Viewport) (*Session, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	b := img.Bounds()
	if err := checkSourcePixels(b.Dx(), b.Dy(), p.cfg.MaxSourcePixels); err != nil {
		return nil, err
	}
	return p.start(img, "", vp)
}

func (p *Pipeline) start(img image.Image, format string, vp Viewport) (*Session, error) {
	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	b := img.Bounds()
	display, err := p.displaySize(b.Dx(), b.Dy(), vp)
	if err != nil {
		return nil, err
	}

	src := &SourceImage{
		Image:         img,
		Format:        format,
		NaturalWidth:  b.Dx(),
		NaturalHeight: b.Dy(),
		DisplayWidth:  display.Width,
		DisplayHeight: display.Height,
	}
	crop := InitialCrop(p.cfg.Aspect, display)

	s := &Session{
		cfg:       p.cfg,
		surface:   p.surface,
		encoder:   p.encoder,
		now:       p.now,
		source:    src,
		crop:      &crop,
		transform: Identity,
		state:     StateLoaded,
	}

	p.mu.Lock()
	prev := p.current
	p.current = s
	p.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	return s, nil
}

func (p *Pipeline) displaySize(naturalW, naturalH int, vp Viewport) (Size, error) {
	nw, nh := float64(naturalW), float64(naturalH)
	for _, v := range []float64{vp.DisplayWidth, vp.DisplayHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Size{}, fmt.Errorf("%w: display size must be a non-negative number", ErrInvalidCrop)
		}
	}

	switch {
	case vp.DisplayWidth > 0 && vp.DisplayHeight > 0:
		return Size{Width: vp.DisplayWidth, Height: vp.DisplayHeight}, nil
	case vp.DisplayWidth > 0:
		return Size{Width: vp.DisplayWidth, Height: vp.DisplayWidth * nh / nw}, nil
	case vp.DisplayHeight > 0:
		return Size{Width: vp.DisplayHeight * nw / nh, Height: vp.DisplayHeight}, nil
	}

	ratio := 1.0
	if p.cfg.MaxDisplayWidth > 0 {
		ratio = math.Min(ratio, float64(p.cfg.MaxDisplayWidth)/nw)
	}
	if p.cfg.MaxDisplayHeight > 0 {
		ratio = math.Min(ratio, float64(p.cfg.MaxDisplayHeight)/nh)
	}
	return Size{Width: nw * ratio, Height: nh * ratio}, nil
}

// Session is one edit of one source image. It is not meant to be shared
// between goroutines; the mutex only guards against Pipeline cancelling it.
type Session struct {
	mu sync.Mutex

	cfg     Config
	surface Surface
	encoder Encoder
	now     func() time.Time

	source    *SourceImage
	crop      *CropRegion
	transform Transform
	state     State
}

func (s *Session) State() State {
	if s == nil {
		return StateEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Source() *SourceImage {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Crop returns the current crop in display pixels.
func (s *Session) Crop() (CropRegion, bool) {
	if s == nil {
		return CropRegion{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crop == nil {
		return CropRegion{}, false
	}
	return *s.crop, true
}

func (s *Session) Transform() Transform {
	if s == nil {
		return Identity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// UpdateCrop replaces the crop region and returns it in display pixels.
// Keeping the region above the minimum size and inside the image is the
// caller's job unless Config.ClampCrop is set.
func (s *Session) UpdateCrop(r CropRegion) (CropRegion, error) {
	if s == nil {
		return CropRegion{}, ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return CropRegion{}, err
	}
	if err := r.Validate(); err != nil {
		return CropRegion{}, err
	}

	display := s.source.Display()
	px := r.ToPixels(display)
	if s.cfg.ClampCrop {
		px = clampCrop(px, display, s.cfg.MinWidth, s.cfg.MinHeight)
	}
	s.crop = &px
	s.state = StateCropping
	return px, nil
}

func (s *Session) SetTransform(t Transform) error {
	if s == nil {
		return ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.transform = t
	s.state = StateCropping
	return nil
}

// Cancel drops the session's crop and transform. A finished session keeps
// its state.
func (s *Session) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDone {
		return
	}
	s.discard()
}

// RenderBitmap draws the current crop without encoding it and without
// finishing the session.
func (s *Session) RenderBitmap(dpr float64) (*image.RGBA, error) {
	if s == nil {
		return nil, ErrNoCropDefined
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.renderable(); err != nil {
		return nil, err
	}
	return s.draw(dpr)
}

// Render composites, crops and encodes the current edit. Any failure after
// the crop check discards the session.
func (s *Session) Render(dpr float64) (*Artifact, error) {
	if s == nil {
		return nil, ErrNoCropDefined
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.renderable(); err != nil {
		return nil, err
	}

	s.state = StateRendering
	bmp, err := s.draw(dpr)
	if err != nil {
		s.discard()
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, bmp); err != nil {
		s.discard()
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if buf.Len() == 0 {
		s.discard()
		return nil, fmt.Errorf("%w: encoder produced no data", ErrEncode)
	}

	s.state = StateDone
	b := bmp.Bounds()
	return &Artifact{
		Data:        buf.Bytes(),
		Filename:    fmt.Sprintf("avatar-%d%s", s.now().UnixMilli(), s.encoder.Extension()),
		ContentType: s.encoder.ContentType(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func (s *Session) editable() error {
	switch s.state {
	case StateLoaded, StateCropping:
		return nil
	case StateDone:
		return ErrSessionDone
	default:
		return ErrSessionClosed
	}
}

func (s *Session) renderable() error {
	if s.state == StateDone {
		return ErrSessionDone
	}
	if s.source == nil || s.crop == nil || s.crop.IsEmpty() {
		return ErrNoCropDefined
	}
	return nil
}

func (s *Session) draw(dpr float64) (*image.RGBA, error) {
	if math.IsNaN(dpr) || math.IsInf(dpr, 0) || dpr <= 0 {
		dpr = 1
	}
	src := s.source
	sx, sy := src.ScaleFactors()
	w, h := OutputSize(*s.crop, src, dpr)

	natural := CropRegion{
		Unit:   UnitPixel,
		X:      s.crop.X * sx,
		Y:      s.crop.Y * sy,
		Width:  s.crop.Width * sx,
		Height: s.crop.Height * sy,
	}
	center := Size{Width: float64(src.NaturalWidth) / 2, Height: float64(src.NaturalHeight) / 2}
	m := compositeMatrix(natural, center, s.transform, dpr)

	return s.surface.Draw(src.Image, src.Image.Bounds(), w, h, m)
}

func (s *Session) discard() {
	s.source = nil
	s.crop = nil
	s.transform = Identity
	s.state = StateEmpty
}
