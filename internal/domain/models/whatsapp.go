package models

// WebhookPayload is the body Meta posts to the webhook endpoint.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue keeps only what the planner bot reads: the sender contacts and their messages.
// Delivery statuses are ignored.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// InboundMessage is a farmer message. Only text and button or list replies carry commands.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ReplyOption `json:"button_reply,omitempty"`
	ListReply   *ReplyOption `json:"list_reply,omitempty"`
}

// ReplyOption is the chosen button or list row. The ID holds the command text.
type ReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
