package sharecard

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Font sizes in pixels
const (
	SentenceFontSize = 48
	FooterFontSize   = 28
)

// FontSet holds the two faces the card uses
type FontSet struct {
	Sentence font.Face
	Footer   font.Face
	Fallback bool // true when no TrueType font was configured
}

// LoadFontSet parses a TrueType font (a Hangul-capable one such as Malgun Gothic or
// Nanum Gothic). An empty path falls back to the built-in 7x13 bitmap face.
func LoadFontSet(path string) (*FontSet, error) {
	if path == "" {
		return FallbackFontSet(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font %s: %w", path, err)
	}
	return ParseFontSet(data)
}

// ParseFontSet builds faces from TrueType bytes
func ParseFontSet(ttf []byte) (*FontSet, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	// DPI 72 makes Size a pixel size, like the canvas font shorthand
	return &FontSet{
		Sentence: truetype.NewFace(f, &truetype.Options{Size: SentenceFontSize, DPI: 72, Hinting: font.HintingFull}),
		Footer:   truetype.NewFace(f, &truetype.Options{Size: FooterFontSize, DPI: 72, Hinting: font.HintingFull}),
	}, nil
}

// FallbackFontSet uses basicfont for both faces
func FallbackFontSet() *FontSet {
	return &FontSet{
		Sentence: basicfont.Face7x13,
		Footer:   basicfont.Face7x13,
		Fallback: true,
	}
}
