package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// xmlBuilder accumulates markup. Elements are written by hand so that child
// order follows the WordprocessingML schema exactly.
type xmlBuilder struct {
	strings.Builder
}

func (x *xmlBuilder) raw(s string) {
	x.WriteString(s)
}

func (x *xmlBuilder) text(s string) {
	_ = xml.EscapeText(x, []byte(s))
}

// empty writes <name a="v" .../> from alternating attribute name/value pairs.
func (x *xmlBuilder) empty(name string, attrs ...string) {
	x.WriteByte('<')
	x.WriteString(name)
	x.attrs(attrs)
	x.WriteString("/>")
}

func (x *xmlBuilder) open(name string, attrs ...string) {
	x.WriteByte('<')
	x.WriteString(name)
	x.attrs(attrs)
	x.WriteByte('>')
}

func (x *xmlBuilder) close(name string) {
	x.WriteString("</")
	x.WriteString(name)
	x.WriteByte('>')
}

func (x *xmlBuilder) attrs(attrs []string) {
	for i := 0; i+1 < len(attrs); i += 2 {
		x.WriteByte(' ')
		x.WriteString(attrs[i])
		x.WriteString(`="`)
		x.text(attrs[i+1])
		x.WriteByte('"')
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func (b *Body) writeBlocks(x *xmlBuilder) {
	for _, blk := range b.blocks {
		blk.write(x)
	}
	// A story must not end with a table.
	if n := len(b.blocks); n == 0 {
		x.empty("w:p")
	} else if _, ok := b.blocks[n-1].(*Table); ok {
		x.empty("w:p")
	}
}

func (p *Paragraph) write(x *xmlBuilder) {
	x.open("w:p")
	if p.lineSpacing > 0 || p.align != "" {
		x.open("w:pPr")
		if p.lineSpacing > 0 {
			x.empty("w:spacing", "w:before", "0", "w:after", "0", "w:line", itoa(p.lineSpacing), "w:lineRule", "auto")
		}
		if p.align != "" {
			x.empty("w:jc", "w:val", string(p.align))
		}
		x.close("w:pPr")
	}
	for _, r := range p.runs {
		r.write(x)
	}
	x.close("w:p")
}

func (r *Run) write(x *xmlBuilder) {
	x.open("w:r")
	r.writeProperties(x)
	switch {
	case r.pageBreak:
		x.empty("w:br", "w:type", "page")
	case r.picture != nil:
		r.picture.write(x)
	default:
		for i, line := range strings.Split(r.text, "\n") {
			if i > 0 {
				x.empty("w:br")
			}
			if line == "" {
				continue
			}
			x.open("w:t", "xml:space", "preserve")
			x.text(line)
			x.close("w:t")
		}
	}
	x.close("w:r")
}

func (r *Run) writeProperties(x *xmlBuilder) {
	if r.font == "" && !r.bold && r.color == "" && r.size == 0 {
		return
	}
	x.open("w:rPr")
	if r.font != "" {
		x.empty("w:rFonts", "w:ascii", r.font, "w:hAnsi", r.font, "w:eastAsia", r.font, "w:cs", r.font)
	}
	if r.bold {
		x.empty("w:b")
		x.empty("w:bCs")
	}
	if r.color != "" {
		x.empty("w:color", "w:val", r.color)
	}
	if r.size > 0 {
		x.empty("w:sz", "w:val", itoa(r.size))
		x.empty("w:szCs", "w:val", itoa(r.size))
	}
	x.close("w:rPr")
}

func (p *picture) write(x *xmlBuilder) {
	cx := strconv.FormatInt(p.cx, 10)
	cy := strconv.FormatInt(p.cy, 10)
	id := itoa(p.id)

	x.open("w:drawing")
	x.open("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	x.empty("wp:extent", "cx", cx, "cy", cy)
	x.empty("wp:effectExtent", "l", "0", "t", "0", "r", "0", "b", "0")
	x.empty("wp:docPr", "id", id, "name", "Picture "+id)
	x.open("wp:cNvGraphicFramePr")
	x.empty("a:graphicFrameLocks", "noChangeAspect", "1")
	x.close("wp:cNvGraphicFramePr")
	x.open("a:graphic")
	x.open("a:graphicData", "uri", nsPic)
	x.open("pic:pic")
	x.open("pic:nvPicPr")
	x.empty("pic:cNvPr", "id", "0", "name", p.name)
	x.empty("pic:cNvPicPr")
	x.close("pic:nvPicPr")
	x.open("pic:blipFill")
	x.empty("a:blip", "r:embed", p.relID)
	x.raw("<a:stretch><a:fillRect/></a:stretch>")
	x.close("pic:blipFill")
	x.open("pic:spPr")
	x.open("a:xfrm")
	x.empty("a:off", "x", "0", "y", "0")
	x.empty("a:ext", "cx", cx, "cy", cy)
	x.close("a:xfrm")
	x.raw(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`)
	x.close("pic:spPr")
	x.close("pic:pic")
	x.close("a:graphicData")
	x.close("a:graphic")
	x.close("wp:inline")
	x.close("w:drawing")
}

func (t *Table) write(x *xmlBuilder) {
	x.open("w:tbl")
	x.open("w:tblPr")
	if t.style != "" {
		x.empty("w:tblStyle", "w:val", t.style)
	}
	x.empty("w:tblW", "w:w", "0", "w:type", "auto")
	if t.align != "" {
		x.empty("w:jc", "w:val", string(t.align))
	}
	if t.borders != nil {
		x.open("w:tblBorders")
		for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
			x.empty(side, "w:val", t.borders.Style, "w:sz", itoa(t.borders.Size), "w:space", "0", "w:color", t.borders.Color)
		}
		x.close("w:tblBorders")
	}
	x.empty("w:tblLayout", "w:type", "fixed")
	x.empty("w:tblLook", "w:val", "04A0", "w:firstRow", "1", "w:lastRow", "0", "w:firstColumn", "1", "w:lastColumn", "0", "w:noHBand", "0", "w:noVBand", "1")
	x.close("w:tblPr")

	x.open("w:tblGrid")
	for _, w := range t.widths {
		x.empty("w:gridCol", "w:w", itoa(w))
	}
	x.close("w:tblGrid")

	for _, row := range t.rows {
		row.write(x)
	}
	x.close("w:tbl")
}

func (r *Row) write(x *xmlBuilder) {
	x.open("w:tr")
	if r.height > 0 {
		rule := "atLeast"
		if r.exact {
			rule = "exact"
		}
		x.open("w:trPr")
		x.empty("w:trHeight", "w:val", itoa(r.height), "w:hRule", rule)
		x.close("w:trPr")
	}
	for _, c := range r.cells {
		c.write(x)
	}
	x.close("w:tr")
}

func (c *Cell) write(x *xmlBuilder) {
	x.open("w:tc")
	x.open("w:tcPr")
	x.empty("w:tcW", "w:w", itoa(c.width), "w:type", "dxa")
	if c.shading != "" {
		x.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", c.shading)
	}
	x.close("w:tcPr")
	if len(c.paragraphs) == 0 {
		x.empty("w:p")
	}
	for _, p := range c.paragraphs {
		p.write(x)
	}
	x.close("w:tc")
}
