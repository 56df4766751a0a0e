package models

// EvidenceImage is one base64 photo from the checklist evidence table.
type EvidenceImage struct {
	// Column is the source column, e.g. Antena_foto.
	Column string `json:"column"`
	Row    int    `json:"row"`
	Data   string `json:"-"`
}
