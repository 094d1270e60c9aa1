// Package typeset turns text into vector object trees, one glyph outline per
// child, so the result can be placed, scaled and animated like any shape.
package typeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrMissingGlyph = errors.New("font has no glyph")
)

// Producer builds a vector object tree from a string.
type Producer interface {
	Typeset(ctx context.Context, text string) (vobject.VectorObject, error)
}

// DefaultSize is the em size in scene units.
const DefaultSize = 48.0

// LineSpacing is the baseline distance in ems for multi-line text.
const LineSpacing = 1.2

// GlyphTypesetter shapes text with HarfBuzz and converts each glyph outline
// into a filled leaf. Safe for concurrent use.
type GlyphTypesetter struct {
	font  *font.Font
	size  float64
	color style.Color

	// HarfbuzzShaper keeps internal buffers and is not safe for concurrent use.
	shapers sync.Pool
}

type Option func(*GlyphTypesetter)

// WithSize sets the em size in scene units.
func WithSize(size float64) Option {
	return func(g *GlyphTypesetter) {
		if size > 0 {
			g.size = size
		}
	}
}

// WithColor sets the glyph fill color.
func WithColor(c style.Color) Option {
	return func(g *GlyphTypesetter) { g.color = c }
}

// New parses a TrueType or OpenType font. For collections the first face
// is used.
func New(fontData []byte, opts ...Option) (*GlyphTypesetter, error) {
	faces, err := font.ParseTTC(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("parse font: no faces")
	}
	g := &GlyphTypesetter{
		font:  faces[0].Font,
		size:  DefaultSize,
		color: style.Black,
		shapers: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Default returns a typesetter using Latin Modern Roman.
func Default(opts ...Option) (*GlyphTypesetter, error) {
	return New(lmroman10regular.TTF, opts...)
}

// Size returns the em size in scene units.
func (g *GlyphTypesetter) Size() float64 { return g.size }

// Typeset lays text out left to right with the first baseline at y=0 and y
// growing downwards. Each visible glyph becomes one child, named after its
// characters. Newlines start a new line.
func (g *GlyphTypesetter) Typeset(ctx context.Context, text string) (vobject.VectorObject, error) {
	if err := ctx.Err(); err != nil {
		return vobject.VectorObject{}, err
	}
	if strings.TrimSpace(text) == "" {
		return vobject.VectorObject{}, ErrEmptyText
	}
	// composed forms map to one glyph where decomposed ones need mark shaping
	text = norm.NFC.String(text)

	// font.Face caches per glyph and must not be shared between calls.
	face := font.NewFace(g.font)
	scale := g.size / float64(face.Upem())

	var glyphs []vobject.VectorObject
	for i, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		if len(runes) == 0 {
			continue
		}
		out := g.shape(face, runes)
		baseline := float64(i) * g.size * LineSpacing
		x := 0.0
		for _, gl := range out.Glyphs {
			cluster := string(runes[gl.TextIndex()])
			if gl.GlyphID == 0 && !isBlank(cluster) {
				return vobject.VectorObject{}, fmt.Errorf("typeset %q: %w for %q", text, ErrMissingGlyph, cluster)
			}
			origin := geom.Pt(
				x+fixedToFloat(gl.XOffset),
				baseline-fixedToFloat(gl.YOffset),
			)
			x += fixedToFloat(gl.XAdvance)

			outline, ok := face.GlyphData(gl.GlyphID).(font.GlyphOutline)
			if !ok || len(outline.Segments) == 0 {
				continue
			}
			subpaths := outlineSubpaths(outline, origin, scale)
			glyphs = append(glyphs, vobject.New().
				SetSubpaths(subpaths).
				SetName(cluster).
				SetFill(style.Solid(g.color), false).
				SetStroke(style.Solid(g.color), false).
				SetStrokeWidth(0, false))
		}
	}
	if len(glyphs) == 0 {
		return vobject.VectorObject{}, ErrEmptyText
	}
	return vobject.Group(glyphs...).SetName(text), nil
}

func (g *GlyphTypesetter) shape(face *font.Face, runes []rune) shaping.Output {
	in := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      floatToFixed(g.size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	shaper := g.shapers.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(in)
	g.shapers.Put(shaper)
	return out
}

// outlineSubpaths converts font units (y up) into scene units (y down)
// positioned at origin.
func outlineSubpaths(outline font.GlyphOutline, origin geom.Point, scale float64) []vobject.Subpath {
	pt := func(p opentype.SegmentPoint) geom.Point {
		return geom.Pt(origin.X+float64(p.X)*scale, origin.Y-float64(p.Y)*scale)
	}
	b := vobject.NewPathBuilder()
	open := false
	for _, s := range outline.Segments {
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			if open {
				b.Close()
			}
			b.MoveTo(pt(s.Args[0]))
			open = true
		case opentype.SegmentOpLineTo:
			b.LineTo(pt(s.Args[0]))
		case opentype.SegmentOpQuadTo:
			b.QuadTo(pt(s.Args[0]), pt(s.Args[1]))
		case opentype.SegmentOpCubeTo:
			b.CubicTo(pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2]))
		}
	}
	if open {
		b.Close()
	}
	return b.Subpaths()
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return language.LookupScript(r)
		}
	}
	return language.Latin
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
