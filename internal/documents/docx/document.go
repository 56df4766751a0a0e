// Package docx writes and reads WordprocessingML (.docx) packages in memory.
package docx

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedImage is returned for picture formats Word cannot embed directly.
var ErrUnsupportedImage = errors.New("UNSUPPORTED_IMAGE_FORMAT")

const (
	partDocument = "document"
	partHeader   = "header1"
)

// Document is a single-section document with an optional default header.
type Document struct {
	Title   string
	Creator string
	// Created is written to the core properties when non-zero.
	Created time.Time

	body    *Body
	header  *Body
	margins Margins
	media   []mediaFile
	docPrID int
}

type mediaFile struct {
	name string // e.g. image1.png
	data []byte
}

// New returns an empty document with one-inch margins.
func New() *Document {
	d := &Document{margins: DefaultMargins()}
	d.body = &Body{doc: d, part: partDocument}
	return d
}

// Body returns the main document story.
func (d *Document) Body() *Body {
	return d.body
}

// Header returns the default section header, creating it on first use.
func (d *Document) Header() *Body {
	if d.header == nil {
		d.header = &Body{doc: d, part: partHeader}
	}
	return d.header
}

// SetMargins replaces the section margins.
func (d *Document) SetMargins(m Margins) {
	d.margins = m
}

// Margins returns the section margins.
func (d *Document) Margins() Margins {
	return d.margins
}

// ContentWidth is the usable text width in twips.
func (d *Document) ContentWidth() int {
	return pageWidth - d.margins.Left - d.margins.Right
}

func (d *Document) addMedia(data []byte, ext string) string {
	name := fmt.Sprintf("image%d.%s", len(d.media)+1, ext)
	d.media = append(d.media, mediaFile{name: name, data: data})
	return name
}

func (d *Document) nextDocPrID() int {
	d.docPrID++
	return d.docPrID
}

type relationship struct {
	id     string
	typ    string
	target string
}

// Body is a story (the document body or a header) holding paragraphs and tables.
type Body struct {
	doc    *Document
	part   string
	blocks []block
	rels   []relationship
}

type block interface {
	write(x *xmlBuilder)
}

func (b *Body) addRel(typ, target string) string {
	id := fmt.Sprintf("rId%d", len(b.rels)+relIDOffset(b.part))
	b.rels = append(b.rels, relationship{id: id, typ: typ, target: target})
	return id
}

// The document part reserves rId1 for styles and rId2 for the header.
func relIDOffset(part string) int {
	if part == partDocument {
		return 3
	}
	return 1
}

// AddParagraph appends an empty paragraph.
func (b *Body) AddParagraph() *Paragraph {
	p := &Paragraph{body: b}
	b.blocks = append(b.blocks, p)
	return p
}

// AddTable appends a rows x cols table whose columns share the content width.
func (b *Body) AddTable(rows, cols int) *Table {
	t := newTable(b, rows, cols)
	b.blocks = append(b.blocks, t)
	return t
}

// AddPageBreak appends a paragraph holding only a page break.
func (b *Body) AddPageBreak() {
	p := b.AddParagraph()
	p.runs = append(p.runs, &Run{pageBreak: true})
}

// Paragraph is a w:p element.
type Paragraph struct {
	body        *Body
	align       Alignment
	lineSpacing int
	runs        []*Run
}

// SetAlignment sets the paragraph justification.
func (p *Paragraph) SetAlignment(a Alignment) *Paragraph {
	p.align = a
	return p
}

// SetLineSpacing sets line spacing in 240ths of a line; 240 is single spacing.
func (p *Paragraph) SetLineSpacing(line int) *Paragraph {
	p.lineSpacing = line
	return p
}

// AddRun appends a text run. Newlines in text become line breaks.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{text: text}
	p.runs = append(p.runs, r)
	return r
}

// Runs returns the paragraph's runs.
func (p *Paragraph) Runs() []*Run {
	return p.runs
}

// AddPicture appends an inline picture of cx x cy EMU. format is png, jpeg or gif.
func (p *Paragraph) AddPicture(data []byte, format string, cx, cy int64) (*Run, error) {
	ext, ok := pictureExtensions[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty picture", ErrUnsupportedImage)
	}

	doc := p.body.doc
	name := doc.addMedia(data, ext)
	relID := p.body.addRel(relTypeImage, "media/"+name)
	id := doc.nextDocPrID()

	r := &Run{picture: &picture{relID: relID, name: name, id: id, cx: cx, cy: cy}}
	p.runs = append(p.runs, r)
	return r, nil
}

var pictureExtensions = map[string]string{
	"png":  "png",
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"gif":  "gif",
}

type picture struct {
	relID  string
	name   string
	id     int
	cx, cy int64
}

// Run is a w:r element holding text, a picture or a page break.
type Run struct {
	text      string
	bold      bool
	size      int
	color     string
	font      string
	picture   *picture
	pageBreak bool
}

// Bold marks the run bold.
func (r *Run) Bold() *Run {
	r.bold = true
	return r
}

// Size sets the font size in points.
func (r *Run) Size(pt float64) *Run {
	r.size = HalfPoints(pt)
	return r
}

// Color sets the font color as RRGGBB.
func (r *Run) Color(hex string) *Run {
	r.color = hex
	return r
}

// Font sets the typeface for all scripts.
func (r *Run) Font(name string) *Run {
	r.font = name
	return r
}

// Text returns the run text.
func (r *Run) Text() string {
	return r.text
}

// Table is a w:tbl element with a fixed grid.
type Table struct {
	body    *Body
	style   string
	align   Alignment
	borders *Border
	widths  []int
	rows    []*Row
}

func newTable(b *Body, rows, cols int) *Table {
	t := &Table{body: b, style: "TableGrid"}
	width := b.doc.ContentWidth() / cols
	t.widths = make([]int, cols)
	for c := range t.widths {
		t.widths[c] = width
	}
	t.rows = make([]*Row, rows)
	for r := range t.rows {
		row := &Row{cells: make([]*Cell, cols)}
		for c := range row.cells {
			row.cells[c] = &Cell{body: b, width: width}
		}
		t.rows[r] = row
	}
	return t
}

// SetStyle sets the table style id. An empty id leaves the table unstyled.
func (t *Table) SetStyle(styleID string) *Table {
	t.style = styleID
	return t
}

// SetAlignment sets the table justification on the page.
func (t *Table) SetAlignment(a Alignment) *Table {
	t.align = a
	return t
}

// SetBorders applies b to all outer and inner borders.
func (t *Table) SetBorders(b Border) *Table {
	t.borders = &b
	return t
}

// SetColumnWidths sets the grid and every cell width, in twips.
func (t *Table) SetColumnWidths(twips ...int) *Table {
	for c := 0; c < len(t.widths) && c < len(twips); c++ {
		t.widths[c] = twips[c]
		for _, row := range t.rows {
			row.cells[c].width = twips[c]
		}
	}
	return t
}

// Rows returns the row count.
func (t *Table) Rows() int {
	return len(t.rows)
}

// Cols returns the column count.
func (t *Table) Cols() int {
	return len(t.widths)
}

// Row returns row r.
func (t *Table) Row(r int) *Row {
	return t.rows[r]
}

// Cell returns the cell at row r, column c.
func (t *Table) Cell(r, c int) *Cell {
	return t.rows[r].cells[c]
}

// Row is a w:tr element.
type Row struct {
	height int
	exact  bool
	cells  []*Cell
}

// SetHeight sets the row height in twips; exact fixes it, otherwise it is a minimum.
func (r *Row) SetHeight(twips int, exact bool) *Row {
	r.height = twips
	r.exact = exact
	return r
}

// Cells returns the row's cells.
func (r *Row) Cells() []*Cell {
	return r.cells
}

// Cell is a w:tc element. It always renders at least one paragraph.
type Cell struct {
	body       *Body
	width      int
	shading    string
	paragraphs []*Paragraph
}

// Paragraph returns the first paragraph, creating it if needed.
func (c *Cell) Paragraph() *Paragraph {
	if len(c.paragraphs) == 0 {
		return c.AddParagraph()
	}
	return c.paragraphs[0]
}

// AddParagraph appends a paragraph to the cell.
func (c *Cell) AddParagraph() *Paragraph {
	p := &Paragraph{body: c.body}
	c.paragraphs = append(c.paragraphs, p)
	return p
}

// SetText replaces the cell content with a single run of text.
func (c *Cell) SetText(text string) *Run {
	p := &Paragraph{body: c.body}
	c.paragraphs = []*Paragraph{p}
	return p.AddRun(text)
}

// Paragraphs returns the cell's paragraphs.
func (c *Cell) Paragraphs() []*Paragraph {
	return c.paragraphs
}

// SetShading fills the cell background with RRGGBB.
func (c *Cell) SetShading(fill string) *Cell {
	c.shading = fill
	return c
}
