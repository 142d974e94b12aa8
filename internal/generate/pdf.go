package generate

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDFBackend renders a layout as a PDF document.
type PDFBackend struct{}

func (b *PDFBackend) ContentType() string { return "application/pdf" }
func (b *PDFBackend) Extension() string   { return "pdf" }

// Render draws the layout onto a single custom-sized page. The page size
// already reflects orientation (width/height swap on toggle), so the
// orientation string is always portrait to avoid a double swap.
func (b *PDFBackend) Render(l *Layout, q Quality) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: l.WidthMM, Ht: l.HeightMM},
	})
	pdf.SetTitle(fmt.Sprintf("Certificate - %s", l.RecipientName), true)
	pdf.SetCreator("certstudio", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Background fill.
	if l.Background != (RGB{255, 255, 255}) {
		pdf.SetFillColor(l.Background.R, l.Background.G, l.Background.B)
		pdf.Rect(0, 0, l.WidthMM, l.HeightMM, "F")
	}

	for _, s := range l.Shapes {
		pdf.SetDrawColor(s.Color.R, s.Color.G, s.Color.B)
		switch s.Kind {
		case "circle":
			pdf.Circle(s.X+s.W/2, s.Y+s.H/2, s.W/2, "D")
		case "line":
			pdf.Line(s.X, s.Y+s.H/2, s.X+s.W, s.Y+s.H/2)
		default:
			pdf.Rect(s.X, s.Y, s.W, s.H, "D")
		}
	}

	for i, img := range l.Images {
		imageType := sniffImageType(img.Data)
		if imageType == "" {
			continue
		}
		name := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
		pdf.ImageOptions(name, img.X, img.Y, img.W, img.H, false, opts, 0, "")
	}

	for _, t := range l.Texts {
		pdf.SetFont(coreFont(t.Font), "", t.SizePt)
		pdf.SetTextColor(t.Color.R, t.Color.G, t.Color.B)
		// Text positions the baseline; offset by the approximate ascent
		// so the stored coordinate stays the glyph box's top-left.
		ascent := t.SizePt / 72 * 25.4 * 0.8
		pdf.Text(t.X, t.Y+ascent, t.Text)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("pdf render: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// coreFont maps editor font families onto the PDF core fonts.
func coreFont(family string) string {
	switch {
	case strings.Contains(strings.ToLower(family), "times"):
		return "Times"
	case strings.Contains(strings.ToLower(family), "courier"):
		return "Courier"
	default:
		return "Helvetica"
	}
}

// sniffImageType returns the fpdf image type tag, or "" for unsupported
// formats.
func sniffImageType(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	switch http.DetectContentType(data[:n]) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}
