package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/bizaudit/internal/logging"
)

// ChromedpClient renders pages in headless Chrome and returns the final DOM.
// Listing pages build most of their content with scripts, so this is the
// backend to use against live listings. Only GET is supported.
type ChromedpClient struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	idleAfter   time.Duration
	timeout     time.Duration
	logger      logging.Logger
}

// NewChromedpClient prepares a browser allocator. The browser process is
// started lazily by the first fetch.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	idle := cfg.IdleAfter
	if idle <= 0 {
		idle = 2 * time.Second
	}

	l := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	l.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: idle.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpClient{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		idleAfter:   idle,
		timeout:     cfg.Timeout,
		logger:      l,
	}, nil
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})
	startTimer()

	return idleChan
}

// Do navigates to req.URL in a fresh tab, waits for the network to settle
// and returns the rendered HTML. The tab is closed before Do returns and is
// torn down early when ctx is cancelled.
func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
	}

	tabCtx, cancelTab := chromedp.NewContext(c.allocCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, c.timeout)
		defer cancelTimeout()
	}

	var (
		docMu    sync.Mutex
		status   int64
		headers  network.Headers
		finalURL string
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		docMu.Lock()
		defer docMu.Unlock()
		if status == 0 {
			status = e.Response.Status
			headers = e.Response.Headers
			finalURL = e.Response.URL
		}
	})
	idle := waitNetworkIdle(tabCtx, c.idleAfter)

	c.logger.Debug("navigating", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(req.URL)); err != nil {
		return nil, c.fail("navigate", ctx, err)
	}

	select {
	case <-idle:
	case <-tabCtx.Done():
		return nil, c.fail("wait for network idle", ctx, tabCtx.Err())
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, c.fail("read dom", ctx, err)
	}

	docMu.Lock()
	defer docMu.Unlock()
	if finalURL == "" {
		finalURL = req.URL
	}
	code := int(status)
	if code == 0 {
		code = http.StatusOK
	}

	return &Response{
		Request:    req,
		Headers:    toHTTPHeader(headers),
		Body:       []byte(html),
		StatusCode: code,
		FinalURL:   finalURL,
		FetchedAt:  time.Now(),
	}, nil
}

// fail prefers the caller's ctx error so callers can tell a deadline from
// a browser failure.
func (c *ChromedpClient) fail(step string, ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	c.logger.Warn("chromedp fetch failed",
		logging.Field{Key: "step", Value: step},
		logging.Field{Key: "error", Value: err.Error()})
	return fmt.Errorf("chromedp %s: %w", step, err)
}

func (c *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

// Close shuts down the browser allocator.
func (c *ChromedpClient) Close() error {
	c.logger.Debug("closing chromedp webclient")
	c.allocCancel()
	return nil
}

func toHTTPHeader(h network.Headers) http.Header {
	out := http.Header{}
	for k, v := range h {
		out.Set(k, fmt.Sprint(v))
	}
	return out
}
