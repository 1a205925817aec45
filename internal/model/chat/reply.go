package chat

// Request is the relay request body.
type Request struct {
	Messages []Message `json:"messages"`
}

// Reply is the relay success body. Audio holds base64-encoded MP3 bytes.
type Reply struct {
	Message string `json:"message"`
	Audio   string `json:"audio,omitempty"`
}

// ErrorBody is the relay failure body.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
