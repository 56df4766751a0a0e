package composeevidencedocument

import "shop-documents/internal/models"

type Input struct {
	// ChecklistID selects the stored photos; when absent ImagesBase64 is used.
	ChecklistID       *int64                `json:"checklistId,omitempty"`
	Placeholders      models.PlaceholderSet `json:"placeholders"`
	ImagesBase64      []string              `json:"imagesBase64,omitempty"`
	LogoBase64        string                `json:"logoBase64"`
	LogoDerechoBase64 string                `json:"logoDerechoBase64"`
	Layout            string                `json:"layout,omitempty"`
}

type Output struct {
	DocumentID     string `json:"documentId"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType"`
	SizeBytes      int    `json:"sizeBytes"`
	Images         int    `json:"images"`
	DocumentBase64 string `json:"documentBase64"`
}
