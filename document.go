package posterizer

import (
	"fmt"
	"html"
	"strings"
)

// TracedLayer is a layer with its traced path data.
type TracedLayer struct {
	Layer
	Path string
}

// Document is the assembled posterization: layers painted back to front over an
// optional background.
type Document struct {
	Width, Height int
	// Background color or Transparent.
	Background string
	// Fill color shared by all layers.
	Fill   string
	Layers []TracedLayer
}

func (d *Document) pathTags(fill string) []string {
	tags := make([]string, 0, len(d.Layers))
	for _, l := range d.Layers {
		if l.Path == "" {
			continue
		}
		fillAttr := ""
		if fill != "" {
			fillAttr = fmt.Sprintf(` fill="%s"`, fill)
		}
		tags = append(tags, fmt.Sprintf(`<path d="%s" stroke="none"%s fill-rule="evenodd" fill-opacity="%.3f"/>`,
			l.Path, fillAttr, roundOpacity(l.Opacity)))
	}
	return tags
}

// SVG returns a standalone SVG document.
func (d *Document) SVG() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" version="1.1">`,
		d.Width, d.Height, d.Width, d.Height)
	sb.WriteString("\n\t")
	if d.Background != "" && d.Background != Transparent {
		fmt.Fprintf(&sb, `<rect x="0" y="0" width="100%%" height="100%%" fill="%s" />`, d.Background)
		sb.WriteString("\n\t")
	}
	sb.WriteString(strings.Join(d.pathTags(d.Fill), "\n\t"))
	sb.WriteString("\n</svg>")
	return sb.String()
}

// Symbol returns the layers as a <symbol> for embedding. It carries a viewBox but no
// size, background or fill, so the referencing document decides those.
func (d *Document) Symbol(id string) string {
	return fmt.Sprintf(`<symbol viewBox="0 0 %d %d" id="%s">%s</symbol>`,
		d.Width, d.Height, html.EscapeString(id), strings.Join(d.pathTags(""), ""))
}
