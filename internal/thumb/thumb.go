// Package thumb turns cover and avatar images into small terminal thumbnails.
package thumb

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Thumbnail is a decoded image scaled to a cell grid. Each cell holds two
// vertically stacked pixels rendered with the upper half block.
type Thumbnail struct {
	Cols int
	Rows int
	img  image.Image
}

// Decode parses image bytes and scales them to fit cols x rows cells,
// keeping the aspect ratio.
func Decode(data []byte, cols, rows int) (*Thumbnail, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Fit(img, cols, rows), nil
}

// Load reads and decodes an image file.
func Load(path string, cols, rows int) (*Thumbnail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, cols, rows)
}

// Fit scales img to fit within cols x rows cells.
func Fit(img image.Image, cols, rows int) *Thumbnail {
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	scaled := resize.Thumbnail(uint(cols), uint(rows*2), img, resize.Bilinear)
	b := scaled.Bounds()
	return &Thumbnail{
		Cols: b.Dx(),
		Rows: (b.Dy() + 1) / 2,
		img:  scaled,
	}
}

// Render draws the thumbnail with ANSI colors.
func (t *Thumbnail) Render() string {
	if t == nil || t.img == nil {
		return ""
	}
	b := t.img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(t.img, x, y))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(t.img, x, y+1))
			}
			sb.WriteString(style.Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(img image.Image, x, y int) lipgloss.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

// Placeholder renders a grey box with a centered label, used when an image
// is missing or could not be decoded.
func Placeholder(label string, cols, rows int) string {
	return lipgloss.NewStyle().
		Width(cols).
		Height(rows).
		Align(lipgloss.Center, lipgloss.Center).
		Background(lipgloss.Color("252")).
		Foreground(lipgloss.Color("240")).
		Render(label)
}
