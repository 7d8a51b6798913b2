package models

// BatchRequest is the payload for POST /api/v1/batch.
type BatchRequest struct {
	// URLs is the list of target pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=20"`

	// EnableInteractions applies to every URL in the batch.
	EnableInteractions bool `json:"enableInteractions,omitempty"`

	// InteractionStrategy applies to every URL in the batch.
	InteractionStrategy InteractionStrategy `json:"interactionStrategy,omitempty"`

	// WebhookURL, when set, receives a POST when the batch finishes.
	WebhookURL string `json:"webhookUrl,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook body with HMAC-SHA256 when set.
	WebhookSecret string `json:"webhookSecret,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchResult is the outcome for a single URL in a batch: either a
// scrape result or the error that sank it.
type BatchResult struct {
	URL    string        `json:"url"`
	Result *ScrapeResult `json:"result,omitempty"`
	Error  *ErrorDetail  `json:"error,omitempty"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Results   []BatchResult `json:"results"`
}

// BatchJob tracks an in-progress batch scrape operation.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "partial", "failed"
	Total     int
	Completed int
	Results   []BatchResult
	CreatedAt int64 // unix timestamp
}
