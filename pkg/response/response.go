// Package response holds the uniform JSON envelope returned by every
// endpoint: {code, message, data?}. Code always equals the HTTP status.
package response

type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(code int, message string, data any) Body {
	return Body{Code: code, Message: message, Data: data}
}

func Error(code int, message string) Body {
	return Body{Code: code, Message: message}
}
