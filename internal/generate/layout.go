package generate

import (
	"context"
	"strconv"
	"strings"

	"certstudio/internal/fields"
	"certstudio/internal/models"
)

// mmPerPx converts editor canvas pixels (CSS pixels at 96 DPI) to
// millimeters on the output page.
const mmPerPx = 25.4 / 96

// RGB is a parsed color.
type RGB struct {
	R, G, B int
}

// TextItem is a positioned run of literal text (tokens already resolved).
type TextItem struct {
	Text   string
	X, Y   float64 // mm from the page's top-left corner
	SizePt float64
	Font   string
	Color  RGB
}

// ShapeItem is a positioned vector shape.
type ShapeItem struct {
	Kind       string // rectangle, circle, line
	X, Y, W, H float64
	Color      RGB
}

// ImageItem is a positioned raster image, already fetched.
type ImageItem struct {
	Data       []byte
	X, Y, W, H float64
}

// Layout is one certificate fully projected into page coordinates: what
// every backend consumes. Items appear in element order.
type Layout struct {
	Title         string
	RecipientName string
	WidthMM       float64
	HeightMM      float64
	Landscape     bool
	Background    RGB
	Texts         []TextItem
	Shapes        []ShapeItem
	Images        []ImageItem
}

// ImageSource fetches image element content by URL. Generation keeps
// working when images cannot be fetched; the element is skipped.
type ImageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BuildLayout projects the template's element list onto page coordinates
// for one recipient, resolving placeholder tokens against the row.
func BuildLayout(ctx context.Context, tmpl *models.Template, row models.RecipientRow, images ImageSource) *Layout {
	props := tmpl.Design.Properties
	l := &Layout{
		Title:         tmpl.Name,
		RecipientName: recipientName(row),
		WidthMM:       props.Size.WidthMM(),
		HeightMM:      props.Size.HeightMM(),
		Landscape:     props.Orientation == models.Landscape,
		Background:    parseColorDefault(props.Background.Value, RGB{255, 255, 255}),
	}

	for _, el := range tmpl.Design.Elements {
		x := el.Position.X * mmPerPx
		y := el.Position.Y * mmPerPx
		w := stylePx(el.Style, "width", 200) * mmPerPx
		h := stylePx(el.Style, "height", 200) * mmPerPx

		switch el.Type {
		case models.ElementText:
			l.Texts = append(l.Texts, TextItem{
				Text:   fields.Resolve(el.Content, row),
				X:      x,
				Y:      y,
				SizePt: stylePx(el.Style, "fontSize", 16) * 72 / 96,
				Font:   styleOr(el.Style, "fontFamily", "Arial"),
				Color:  parseColorDefault(el.Style["color"], RGB{}),
			})
		case models.ElementPlaceholder:
			// A placeholder holding a resolved URL is a static image; a
			// token (or plain text) renders as text.
			if isImageURL(el.Content) {
				if img := fetchImage(ctx, images, el.Content); img != nil {
					l.Images = append(l.Images, ImageItem{Data: img, X: x, Y: y, W: w, H: h})
				}
				continue
			}
			l.Texts = append(l.Texts, TextItem{
				Text:   fields.Resolve(el.Content, row),
				X:      x,
				Y:      y,
				SizePt: stylePx(el.Style, "fontSize", 16) * 72 / 96,
				Font:   styleOr(el.Style, "fontFamily", "Arial"),
				Color:  parseColorDefault(el.Style["color"], RGB{}),
			})
		case models.ElementShape:
			l.Shapes = append(l.Shapes, ShapeItem{
				Kind:  shapeKind(el.Content),
				X:     x,
				Y:     y,
				W:     w,
				H:     h,
				Color: parseColorDefault(el.Style["color"], RGB{}),
			})
		case models.ElementImage:
			if el.Content == "" {
				continue
			}
			if img := fetchImage(ctx, images, el.Content); img != nil {
				l.Images = append(l.Images, ImageItem{Data: img, X: x, Y: y, W: w, H: h})
			}
		}
	}

	return l
}

// recipientName picks the display name used for titles and filenames.
func recipientName(row models.RecipientRow) string {
	for _, key := range []string{"name", "recipient.name", "recipient_name", "full_name"} {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
	}
	return "certificate"
}

func fetchImage(ctx context.Context, images ImageSource, url string) []byte {
	if images == nil {
		return nil
	}
	data, err := images.Fetch(ctx, url)
	if err != nil {
		return nil
	}
	return data
}

func isImageURL(content string) bool {
	return strings.HasPrefix(content, "http://") ||
		strings.HasPrefix(content, "https://") ||
		strings.HasPrefix(content, "data:image/")
}

func shapeKind(content string) string {
	switch content {
	case models.ShapeCircle, models.ShapeLine:
		return content
	default:
		return models.ShapeRectangle
	}
}

// stylePx parses a "NNpx" style value, falling back when absent or
// unparseable ("auto", "", malformed).
func stylePx(style map[string]string, key string, fallback float64) float64 {
	v, ok := style[key]
	if !ok {
		return fallback
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func styleOr(style map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(style[key]); v != "" {
		return v
	}
	return fallback
}

// parseColorDefault parses a #rgb or #rrggbb hex color.
func parseColorDefault(s string, fallback RGB) RGB {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return fallback
	}
	s = s[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return fallback
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return RGB{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}
}
