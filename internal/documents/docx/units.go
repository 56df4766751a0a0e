package docx

import "math"

// Measurement conversions. Word geometry is in twips (1/1440 inch), drawing
// extents in EMU (914400 per inch) and font sizes in half-points.
const (
	EMUPerInch   = 914400
	TwipsPerInch = 1440
	TwipsPerCm   = 567
)

// InchesEMU converts inches to EMU.
func InchesEMU(in float64) int64 {
	return int64(math.Round(in * EMUPerInch))
}

// InchesTwips converts inches to twips.
func InchesTwips(in float64) int {
	return int(math.Round(in * TwipsPerInch))
}

// CmTwips converts centimetres to twips using the 567 twips/cm approximation Word uses.
func CmTwips(cm float64) int {
	return int(cm * TwipsPerCm)
}

// HalfPoints converts a point size to the half-point unit of w:sz.
func HalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// Alignment is a paragraph or table justification.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignBoth   Alignment = "both"
)

// Border describes a table border line. Size is in eighths of a point.
type Border struct {
	Style string
	Size  int
	Color string
}

// SingleBorder returns a solid black border of the given weight.
func SingleBorder(eighths int) Border {
	return Border{Style: "single", Size: eighths, Color: "000000"}
}

// Margins are page margins in twips.
type Margins struct {
	Top, Right, Bottom, Left int
	Header, Footer           int
}

// DefaultMargins are one inch all round.
func DefaultMargins() Margins {
	return Margins{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 720, Footer: 720}
}

// Letter page size in twips.
const (
	pageWidth  = 12240
	pageHeight = 15840
)
