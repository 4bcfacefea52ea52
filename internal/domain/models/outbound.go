package models

// OutboundMessageRequest asks for a text message to be pushed to a farmer.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// PublishedArtifact describes an exported report uploaded to object storage.
type PublishedArtifact struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}
