// Package webclient fetches listing pages through interchangeable backends.
package webclient

import (
	"context"
	"errors"
)

// WebClient performs page fetches. Implementations must be safe for
// concurrent use and honour ctx cancellation.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}

var (
	ErrNilRequest        = errors.New("webclient: nil request")
	ErrUnsupportedMethod = errors.New("webclient: method not supported by backend")
	ErrBodyTooLarge      = errors.New("webclient: response body exceeds limit")
)
