package generate

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/fumiama/go-docx"
)

// DOCXBackend renders a layout as a Word document. Word's flow model has
// no absolute positioning for plain paragraphs, so text items are
// emitted top-to-bottom in canvas order with their size and color
// preserved; shapes and images are not representable and are skipped.
type DOCXBackend struct{}

func (b *DOCXBackend) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
func (b *DOCXBackend) Extension() string { return "docx" }

func (b *DOCXBackend) Render(l *Layout, q Quality) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	texts := make([]TextItem, len(l.Texts))
	copy(texts, l.Texts)
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].Y < texts[j].Y })

	for _, t := range texts {
		para := doc.AddParagraph()
		para.Justification("center")
		run := para.AddText(t.Text)
		// w:sz is half-points.
		run.Size(strconv.Itoa(int(t.SizePt * 2)))
		if t.Color != (RGB{}) {
			run.Color(fmt.Sprintf("%02X%02X%02X", t.Color.R, t.Color.G, t.Color.B))
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("docx output: %w", err)
	}
	return buf.Bytes(), nil
}
