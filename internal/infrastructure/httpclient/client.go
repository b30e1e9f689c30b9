package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/resilience"
)

const userAgent = "webterm/1.0"

// Config describes one outbound peer.
type Config struct {
	Name     string
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// StatusError is returned when the peer answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client is a JSON client for a single peer. Requests go through a
// circuit breaker; transport failures and 5xx answers count against it.
type Client struct {
	name    string
	resty   *resty.Client
	breaker *resilience.Breaker
}

// New builds a client backed by a retrying transport.
func New(cfg Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	log = log.Named("http." + cfg.Name)

	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.RetryMax
	retry.RetryWaitMin = 100 * time.Millisecond
	retry.RetryWaitMax = time.Second
	retry.Logger = nil
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	r := resty.NewWithClient(retry.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	breaker := resilience.New(cfg.Name, resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: healthy,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state changed",
				zap.String("peer", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{name: cfg.Name, resty: r, breaker: breaker}
}

// healthy treats answered requests and caller cancellations as successes.
func healthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code < http.StatusInternalServerError
}

// Post sends body as JSON and decodes the answer into out when out is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Get decodes the answer into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// State exposes the breaker state.
func (c *Client) State() resilience.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.breaker.Execute(func() error {
		req := c.resty.R().SetContext(ctx)
		if body != nil {
			payload, err := sonic.Marshal(body)
			if err != nil {
				return fmt.Errorf("encode %s request: %w", c.name, err)
			}
			req.SetHeader("Content-Type", "application/json").SetBody(payload)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
		}

		if out == nil || len(resp.Body()) == 0 {
			return nil
		}
		if err := sonic.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s response: %w", c.name, err)
		}
		return nil
	})
}
