package sharecard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/mrwolf/yojeum-server/internal/metrics"
)

// Card geometry, in canvas pixels
const (
	CanvasSize = 1080

	CardX      = 80
	CardY      = 200
	CardWidth  = 920
	CardHeight = 680
	AccentBar  = 6

	ShadowBlur    = 30
	ShadowOffsetY = 10
	ShadowAlpha   = 0.1

	TextMaxWidth = 820
	LineHeight   = 70
	CenterX      = 540
	CenterY      = 540
	FooterY      = 820

	FooterLabel = "요즘 어때?"
	MIMEPNG     = "image/png"
	// Quality the page requested from the encoder. PNG is lossless so it is informational.
	Quality = 0.95
)

var (
	gradientTop    = color.RGBA{0xf8, 0xf9, 0xfa, 0xff}
	gradientBottom = color.RGBA{0xe9, 0xec, 0xef, 0xff}
	cardColor      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	accentColor    = color.RGBA{0x4c, 0xaf, 0x50, 0xff}
	textColor      = color.RGBA{0x2c, 0x3e, 0x50, 0xff}
	footerColor    = color.RGBA{0x95, 0xa5, 0xa6, 0xff}
)

// Card is a rendered, encoded share image
type Card struct {
	Sentence string
	PNG      []byte
	MIME     string
	Quality  float64
}

// Layout is where each wrapped line lands; exposed for tests and the CLI
type Layout struct {
	Lines  []string
	StartY float64 // top of the first line
}

// LayoutSentence wraps the sentence and vertically centres the block on the card
func LayoutSentence(m Measurer, sentence string) Layout {
	lines := Wrap(m, sentence, TextMaxWidth)
	total := float64(len(lines) * LineHeight)
	return Layout{Lines: lines, StartY: CenterY - total/2}
}

// Render draws the share card for sentence
func Render(sentence string, fonts *FontSet) (*image.RGBA, error) {
	if fonts == nil || fonts.Sentence == nil || fonts.Footer == nil {
		return nil, fmt.Errorf("render: font set is incomplete")
	}

	img := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	fillGradient(img, gradientTop, gradientBottom)

	card := image.Rect(CardX, CardY, CardX+CardWidth, CardY+CardHeight)
	drawShadow(img, card.Add(image.Pt(0, ShadowOffsetY)), ShadowBlur, ShadowAlpha)
	draw.Draw(img, card, image.NewUniform(cardColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(CardX, CardY, CardX+CardWidth, CardY+AccentBar), image.NewUniform(accentColor), image.Point{}, draw.Src)

	layout := LayoutSentence(FaceMeasurer{Face: fonts.Sentence}, sentence)
	for i, line := range layout.Lines {
		drawCentered(img, fonts.Sentence, textColor, line, layout.StartY+float64(i*LineHeight))
	}

	drawCentered(img, fonts.Footer, footerColor, FooterLabel, FooterY)
	return img, nil
}

// EncodePNG encodes the canvas
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose renders and encodes a card in one step
func Compose(sentence string, fonts *FontSet) (Card, error) {
	start := time.Now()
	defer func() { metrics.CardRenderSeconds.Observe(time.Since(start).Seconds()) }()

	img, err := Render(sentence, fonts)
	if err != nil {
		return Card{}, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return Card{}, err
	}
	return Card{Sentence: sentence, PNG: data, MIME: MIMEPNG, Quality: Quality}, nil
}

func fillGradient(img *image.RGBA, top, bottom color.RGBA) {
	b := img.Bounds()
	h := b.Dy() - 1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(h)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// drawShadow darkens pixels around rect with a falloff over blur pixels.
// Quadratic falloff stands in for the canvas gaussian shadow.
func drawShadow(img *image.RGBA, rect image.Rectangle, blur int, alpha float64) {
	area := rect.Inset(-blur).Intersect(img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := maxInt(rect.Min.X-x, 0, x-(rect.Max.X-1))
			dy := maxInt(rect.Min.Y-y, 0, y-(rect.Max.Y-1))
			dist := math.Hypot(float64(dx), float64(dy))
			if dist >= float64(blur) {
				continue
			}
			falloff := 1 - dist/float64(blur)
			a := alpha * falloff * falloff

			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(c.R) * (1 - a)),
				G: uint8(float64(c.G) * (1 - a)),
				B: uint8(float64(c.B) * (1 - a)),
				A: c.A,
			})
		}
	}
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// drawCentered draws s horizontally centred on CenterX with its top edge at top
func drawCentered(img *image.RGBA, face font.Face, c color.Color, s string, top float64) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
	}
	width := float64(d.MeasureString(s)) / 64
	x := CenterX - width/2
	baseline := top + float64(face.Metrics().Ascent)/64

	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(baseline * 64),
	}
	d.DrawString(s)
}
