package deliverorderdocument

type Input struct {
	ClientID int64  `json:"clienteId"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Format   string `json:"format,omitempty"`
}

type Output struct {
	DeliveryID     string `json:"deliveryId"`
	DeliveryStatus string `json:"deliveryStatus"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	Recipient      string `json:"recipient,omitempty"`
	DocumentID     string `json:"documentId,omitempty"`
	MessageID      string `json:"messageId,omitempty"`
	SentAt         string `json:"sentAt"`
}
