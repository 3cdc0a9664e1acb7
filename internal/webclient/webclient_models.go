package webclient

import (
	"net/http"
	"time"
)

// Request is one page fetch. Body is sent only by backends that support it.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response carries the fetched page; Body may be truncated to
// Config.MaxBodyBytes.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	// FinalURL is the URL after redirects, when the backend knows it.
	FinalURL  string
	FetchedAt time.Time
}
