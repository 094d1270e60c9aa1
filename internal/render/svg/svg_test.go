package svg

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

func frame(objs ...vobject.VectorObject) scene.Frame {
	return scene.Frame{
		Number:      3,
		Width:       200,
		Height:      100,
		Objects:     objs,
		Background:  style.Solid(style.White),
		TopLeft:     geom.Pt(0, 0),
		BottomRight: geom.Pt(200, 100),
	}
}

// elements counts start elements by local name.
func elements(t *testing.T, doc []byte) map[string]int {
	t.Helper()
	counts := map[string]int{}
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
	return counts
}

func TestEncodeSolidShapes(t *testing.T) {
	sq := vobject.Square(20).SetFill(style.Solid(style.RGB(255, 0, 0)), false).SetIndex(1, false)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, frame(sq)))

	doc := buf.String()
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `viewBox="0 0 200 100"`)
	assert.Contains(t, doc, `data-object="1"`)
	assert.Contains(t, doc, `fill="rgba(255,0,0,1.000)"`)

	counts := elements(t, buf.Bytes())
	assert.Equal(t, 1, counts["svg"])
	assert.Equal(t, 1, counts["rect"])
	assert.Equal(t, 1, counts["path"])
	assert.Zero(t, counts["defs"])
}

func TestEncodeGradientGoesToDefs(t *testing.T) {
	g := style.Linear(geom.Pt(0, 0), geom.Pt(10, 0),
		style.ColorStop{Offset: 0, Color: style.Black},
		style.ColorStop{Offset: 1, Color: style.White})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, frame(vobject.Circle(5).SetFill(g, false))))

	counts := elements(t, buf.Bytes())
	assert.Equal(t, 1, counts["linearGradient"])
	assert.Equal(t, 2, counts["stop"])
	assert.Contains(t, buf.String(), `fill="url(#grad1)"`)
}

func TestEncodeImageFillIsClipped(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	fill := style.Image(png, geom.R(geom.Pt(0, 0), geom.Pt(10, 10)))
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, frame(vobject.Square(8).SetFill(fill, false).SetStrokeWidth(0, false))))

	counts := elements(t, buf.Bytes())
	assert.Equal(t, 1, counts["clipPath"])
	assert.Equal(t, 1, counts["image"])
	doc := buf.String()
	assert.Contains(t, doc, `clip-path="url(#clip1)"`)
	assert.Contains(t, doc, "data:image/png;base64,")
}

func TestPathData(t *testing.T) {
	cmds := []render.PathCommand{
		{Op: 'M', Args: []float64{0, 0.5}},
		{Op: 'C', Args: []float64{1, 2, 3, 4, 5.12345, 6}},
		{Op: 'Z'},
	}
	assert.Equal(t, "M0 0.5 C1 2 3 4 5.123 6 Z", PathData(cmds))
}

func TestDirWritesFrames(t *testing.T) {
	d, err := NewDir(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, d.RenderFrame(context.Background(), frame(vobject.Circle(5))))

	data, err := os.ReadFile(d.Path(3))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestLatestKeepsLastDocument(t *testing.T) {
	var l Latest
	assert.Nil(t, l.Bytes())
	require.NoError(t, l.RenderFrame(context.Background(), frame()))
	assert.Contains(t, string(l.Bytes()), "<svg")
}
