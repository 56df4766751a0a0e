package composeorderdocument

type Input struct {
	ClientID int64  `json:"clienteId"`
	Format   string `json:"format,omitempty"`
}

type Output struct {
	DocumentID     string `json:"documentId"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType"`
	SizeBytes      int    `json:"sizeBytes"`
	DocumentBase64 string `json:"documentBase64"`
}
