package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// Package is the parsed structure of a .docx file.
type Package struct {
	Body    Part
	Headers []Part
	// Media maps word/media entry names to their bytes.
	Media map[string][]byte
	// Parts holds the raw XML of every part, keyed by zip entry name.
	Parts map[string][]byte
}

// Part summarizes one story.
type Part struct {
	Name       string
	Tables     []TableInfo
	Paragraphs []string
	// Images lists the media names of pictures outside tables, in order.
	Images     []string
	PageBreaks int
}

// TableInfo summarizes a top-level table.
type TableInfo struct {
	Cells [][]CellInfo
}

// Rows returns the row count.
func (t TableInfo) Rows() int {
	return len(t.Cells)
}

// Cols returns the widest row's cell count.
func (t TableInfo) Cols() int {
	n := 0
	for _, row := range t.Cells {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// ImageCount counts pictures in all cells.
func (t TableInfo) ImageCount() int {
	n := 0
	for _, row := range t.Cells {
		for _, c := range row {
			n += len(c.Images)
		}
	}
	return n
}

// CellInfo is the text and pictures of one cell.
type CellInfo struct {
	Text   string
	Images []string
}

// ImageCount counts every picture in the part, inside tables or not.
func (p Part) ImageCount() int {
	n := len(p.Images)
	for _, t := range p.Tables {
		n += t.ImageCount()
	}
	return n
}

// Inspect parses a .docx package held in data.
func Inspect(data []byte) (*Package, error) {
	return InspectReader(bytes.NewReader(data), int64(len(data)))
}

// InspectReader parses a .docx package from r.
func InspectReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("docx: open package: %w", err)
	}

	pkg := &Package{Media: map[string][]byte{}, Parts: map[string][]byte{}}
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(f.Name, "word/media/") {
			pkg.Media[path.Base(f.Name)] = data
			continue
		}
		pkg.Parts[f.Name] = data
	}

	body, ok := pkg.Parts["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("docx: missing word/document.xml")
	}
	if pkg.Body, err = parsePart("word/document.xml", body, pkg.rels("word/document.xml")); err != nil {
		return nil, err
	}

	var headerNames []string
	for name := range pkg.Parts {
		if strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml") {
			headerNames = append(headerNames, name)
		}
	}
	sort.Strings(headerNames)
	for _, name := range headerNames {
		part, err := parsePart(name, pkg.Parts[name], pkg.rels(name))
		if err != nil {
			return nil, err
		}
		pkg.Headers = append(pkg.Headers, part)
	}

	return pkg, nil
}

// ImageCount counts pictures in the body and all headers.
func (p *Package) ImageCount() int {
	n := p.Body.ImageCount()
	for _, h := range p.Headers {
		n += h.ImageCount()
	}
	return n
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("docx: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("docx: read %s: %w", f.Name, err)
	}
	return data, nil
}

// rels maps relationship ids of a part to media base names.
func (p *Package) rels(partName string) map[string]string {
	relsName := path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
	data, ok := p.Parts[relsName]
	if !ok {
		return nil
	}

	var doc struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	out := make(map[string]string, len(doc.Relationships))
	for _, r := range doc.Relationships {
		out[r.ID] = path.Base(r.Target)
	}
	return out
}

type partParser struct {
	part      Part
	rels      map[string]string
	depth     int // table nesting
	cell      *CellInfo
	paragraph *strings.Builder
	inText    bool
}

func parsePart(name string, data []byte, rels map[string]string) (Part, error) {
	pp := &partParser{part: Part{Name: name}, rels: rels}
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Part{}, fmt.Errorf("docx: parse %s: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			pp.start(t)
		case xml.EndElement:
			pp.end(t)
		case xml.CharData:
			if pp.inText && pp.paragraph != nil {
				pp.paragraph.Write(t)
			}
		}
	}
	return pp.part, nil
}

func (pp *partParser) currentTable() *TableInfo {
	return &pp.part.Tables[len(pp.part.Tables)-1]
}

func (pp *partParser) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		pp.depth++
		if pp.depth == 1 {
			pp.part.Tables = append(pp.part.Tables, TableInfo{})
		}
	case "tr":
		if pp.depth == 1 {
			tbl := pp.currentTable()
			tbl.Cells = append(tbl.Cells, nil)
		}
	case "tc":
		if pp.depth == 1 {
			tbl := pp.currentTable()
			row := len(tbl.Cells) - 1
			tbl.Cells[row] = append(tbl.Cells[row], CellInfo{})
			pp.cell = &tbl.Cells[row][len(tbl.Cells[row])-1]
		}
	case "p":
		if pp.paragraph == nil {
			pp.paragraph = &strings.Builder{}
		} else if pp.paragraph.Len() > 0 {
			pp.paragraph.WriteByte('\n')
		}
	case "t":
		pp.inText = true
	case "br":
		if attr(t, "type") == "page" {
			pp.part.PageBreaks++
		} else if pp.paragraph != nil {
			pp.paragraph.WriteByte('\n')
		}
	case "blip":
		media := pp.rels[attr(t, "embed")]
		if pp.cell != nil {
			pp.cell.Images = append(pp.cell.Images, media)
		} else {
			pp.part.Images = append(pp.part.Images, media)
		}
	}
}

func (pp *partParser) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		pp.inText = false
	case "p":
		// Cell paragraphs accumulate until the cell closes.
		if pp.cell == nil && pp.depth == 0 && pp.paragraph != nil {
			pp.part.Paragraphs = append(pp.part.Paragraphs, pp.paragraph.String())
			pp.paragraph = nil
		}
	case "tc":
		if pp.depth == 1 && pp.cell != nil {
			if pp.paragraph != nil {
				pp.cell.Text = pp.paragraph.String()
			}
			pp.cell = nil
			pp.paragraph = nil
		}
	case "tbl":
		pp.depth--
	}
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
