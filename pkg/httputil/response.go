package httputil

type Response struct {
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Messages []string    `json:"messages,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewValidationResponse carries the full list of caller-correctable
// messages, mirroring what the form layer renders.
func NewValidationResponse(messages []string) *Response {
	r := &Response{
		Status:   "error",
		Messages: messages,
	}
	if len(messages) > 0 {
		r.Message = messages[0]
	}
	return r
}
