package extractor

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/raysh454/bizaudit/internal/auditerr"
)

// classifyFetchErr maps a transport error onto the extractor failure codes.
func classifyFetchErr(ctx context.Context, err error, url string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return auditerr.Wrap(err, auditerr.CodeExtractionTimeout, "fetch %s timed out", url)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return auditerr.Wrap(err, auditerr.CodeExtractionTimeout, "fetch %s timed out", url)
	}
	return auditerr.Wrap(err, auditerr.CodeExtractionFailed, "fetch %s", url)
}

// classifyStatus returns nil for 2xx and a coded error otherwise.
func classifyStatus(status int, url string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return auditerr.New(auditerr.CodeSubjectNotFound, "listing %s returned %d", url, status)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return auditerr.New(auditerr.CodeExtractionTimeout, "listing %s returned %d", url, status)
	default:
		return auditerr.New(auditerr.CodeExtractionFailed, "listing %s returned %d", url, status)
	}
}
