package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeHeader         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"

	// ContentType is the media type of a .docx file.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Bytes serializes the document into a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the .docx package to w. Output is deterministic for identical input.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	parts := []zipEntry{
		{"[Content_Types].xml", []byte(d.contentTypesXML())},
		{"_rels/.rels", []byte(packageRelsXML())},
		{"docProps/core.xml", []byte(d.corePropsXML())},
		{"docProps/app.xml", []byte(appPropsXML)},
		{"word/document.xml", []byte(d.documentXML())},
		{"word/_rels/document.xml.rels", []byte(d.documentRelsXML())},
		{"word/styles.xml", []byte(stylesXML)},
	}
	if d.header != nil {
		parts = append(parts,
			zipEntry{"word/header1.xml", []byte(d.headerXML())},
			zipEntry{"word/_rels/header1.xml.rels", []byte(relsXML(d.header.rels))},
		)
	}

	for _, p := range parts {
		if err := writeZipEntry(zw, p.name, p.data, zip.Deflate); err != nil {
			return cw.n, err
		}
	}
	for _, m := range d.media {
		// Image formats are already compressed.
		if err := writeZipEntry(zw, "word/media/"+m.name, m.data, zip.Store); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("docx: finalize package: %w", err)
	}
	return cw.n, nil
}

type zipEntry struct {
	name string
	data []byte
}

func writeZipEntry(zw *zip.Writer, name string, data []byte, method uint16) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return fmt.Errorf("docx: create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("docx: write %s: %w", name, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (d *Document) documentXML() string {
	var x xmlBuilder
	x.raw(xmlHeader)
	x.open("w:document", "xmlns:w", nsW, "xmlns:r", nsR, "xmlns:wp", nsWP, "xmlns:a", nsA, "xmlns:pic", nsPic)
	x.open("w:body")
	d.body.writeBlocks(&x)

	m := d.margins
	x.open("w:sectPr")
	if d.header != nil {
		x.empty("w:headerReference", "w:type", "default", "r:id", "rId2")
	}
	x.empty("w:pgSz", "w:w", itoa(pageWidth), "w:h", itoa(pageHeight))
	x.empty("w:pgMar",
		"w:top", itoa(m.Top), "w:right", itoa(m.Right), "w:bottom", itoa(m.Bottom), "w:left", itoa(m.Left),
		"w:header", itoa(m.Header), "w:footer", itoa(m.Footer), "w:gutter", "0")
	x.close("w:sectPr")

	x.close("w:body")
	x.close("w:document")
	return x.String()
}

func (d *Document) headerXML() string {
	var x xmlBuilder
	x.raw(xmlHeader)
	x.open("w:hdr", "xmlns:w", nsW, "xmlns:r", nsR, "xmlns:wp", nsWP, "xmlns:a", nsA, "xmlns:pic", nsPic)
	d.header.writeBlocks(&x)
	x.close("w:hdr")
	return x.String()
}

func (d *Document) documentRelsXML() string {
	rels := []relationship{{id: "rId1", typ: relTypeStyles, target: "styles.xml"}}
	if d.header != nil {
		rels = append(rels, relationship{id: "rId2", typ: relTypeHeader, target: "header1.xml"})
	}
	return relsXML(append(rels, d.body.rels...))
}

func relsXML(rels []relationship) string {
	var x xmlBuilder
	x.raw(xmlHeader)
	x.open("Relationships", "xmlns", nsRelationships)
	for _, r := range rels {
		x.empty("Relationship", "Id", r.id, "Type", r.typ, "Target", r.target)
	}
	x.close("Relationships")
	return x.String()
}

func packageRelsXML() string {
	return relsXML([]relationship{
		{id: "rId1", typ: relTypeOfficeDocument, target: "word/document.xml"},
		{id: "rId2", typ: relTypeCoreProps, target: "docProps/core.xml"},
		{id: "rId3", typ: relTypeExtendedProps, target: "docProps/app.xml"},
	})
}

func (d *Document) contentTypesXML() string {
	var x xmlBuilder
	x.raw(xmlHeader)
	x.open("Types", "xmlns", nsContentTypes)
	x.empty("Default", "Extension", "rels", "ContentType", "application/vnd.openxmlformats-package.relationships+xml")
	x.empty("Default", "Extension", "xml", "ContentType", "application/xml")
	x.empty("Default", "Extension", "png", "ContentType", "image/png")
	x.empty("Default", "Extension", "jpeg", "ContentType", "image/jpeg")
	x.empty("Default", "Extension", "gif", "ContentType", "image/gif")
	x.empty("Override", "PartName", "/word/document.xml", "ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")
	x.empty("Override", "PartName", "/word/styles.xml", "ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
	if d.header != nil {
		x.empty("Override", "PartName", "/word/header1.xml", "ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml")
	}
	x.empty("Override", "PartName", "/docProps/core.xml", "ContentType", "application/vnd.openxmlformats-package.core-properties+xml")
	x.empty("Override", "PartName", "/docProps/app.xml", "ContentType", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	x.close("Types")
	return x.String()
}

func (d *Document) corePropsXML() string {
	var x xmlBuilder
	x.raw(xmlHeader)
	x.open("cp:coreProperties",
		"xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		"xmlns:dc", "http://purl.org/dc/elements/1.1/",
		"xmlns:dcterms", "http://purl.org/dc/terms/",
		"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	if d.Title != "" {
		x.open("dc:title")
		x.text(d.Title)
		x.close("dc:title")
	}
	if d.Creator != "" {
		x.open("dc:creator")
		x.text(d.Creator)
		x.close("dc:creator")
	}
	if !d.Created.IsZero() {
		x.open("dcterms:created", "xsi:type", "dcterms:W3CDTF")
		x.text(d.Created.UTC().Format(time.RFC3339))
		x.close("dcterms:created")
	}
	x.close("cp:coreProperties")
	return x.String()
}

const appPropsXML = xmlHeader +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>shop-documents</Application></Properties>`

const stylesXML = xmlHeader +
	`<w:styles xmlns:w="` + nsW + `">` +
	`<w:docDefaults><w:rPrDefault><w:rPr>` +
	`<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/>` +
	`<w:sz w:val="22"/><w:szCs w:val="22"/><w:lang w:val="es-MX"/>` +
	`</w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:pPrDefault>` +
	`</w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/>` +
	`<w:uiPriority w:val="99"/><w:semiHidden/><w:unhideWhenUsed/>` +
	`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar>` +
	`<w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/>` +
	`<w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/>` +
	`</w:tblCellMar></w:tblPr></w:style>` +
	`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/>` +
	`<w:basedOn w:val="TableNormal"/><w:uiPriority w:val="39"/>` +
	`<w:tblPr><w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`</w:tblBorders></w:tblPr></w:style>` +
	`</w:styles>`
