package http

import (
	"context"
	"net/url"
	"time"

	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

// Executor runs commands on a remote interpreter over its HTTP API.
type Executor struct {
	client *httpclient.Client
}

// NewExecutor creates an executor for the interpreter at baseURL. Commands
// are not retried; a retry could apply a write twice.
func NewExecutor(baseURL string, timeout time.Duration, log *logging.Logger) *Executor {
	return &Executor{
		client: httpclient.New(httpclient.Config{
			Name:     "interpreter",
			BaseURL:  baseURL,
			Timeout:  timeout,
			RetryMax: 0,
		}, log),
	}
}

func (e *Executor) Execute(ctx context.Context, req shell.Request) (shell.Result, error) {
	var res shell.Result
	if err := e.client.Post(ctx, "/api/cli/execute", req, &res); err != nil {
		return shell.Result{}, err
	}
	return res, nil
}

func (e *Executor) EndSession(ctx context.Context, sessionID string) error {
	return e.client.Delete(ctx, "/api/cli/session/"+url.PathEscape(sessionID))
}
