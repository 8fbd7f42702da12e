package transpiler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
)

// Remote calls an HTTP transpiler service:
//
//	GET  /health     -> 200 when ready
//	POST /transform  {source, filename, dialects}
//	                 -> 200 {code} | 422 {error: {message, line, column}}
type Remote struct {
	client *httpclient.Client
}

type remoteError struct {
	Error *Diagnostic `json:"error"`
}

// NewRemote creates a backend over client, whose base URL names the service
func NewRemote(client *httpclient.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Init(ctx context.Context) error {
	// a manual retry must not be refused by a breaker opened by the failure
	// it is retrying
	r.client.Breaker.Reset()

	req, err := r.client.Request(ctx)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(func() (*resty.Response, error) {
		return req.Get("/health")
	})
	if err != nil {
		return fmt.Errorf("transpiler health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("transpiler health: status %d", resp.StatusCode())
	}
	return nil
}

func (r *Remote) Transform(ctx context.Context, in Request) (Result, error) {
	req, err := r.client.Request(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out Result
	var failure remoteError
	resp, err := r.client.Do(func() (*resty.Response, error) {
		return req.
			SetBody(in).
			SetResult(&out).
			SetError(&failure).
			Post("/transform")
	})
	if err != nil {
		// transport failures are the service's, not the file's
		return Result{}, fmt.Errorf("%w: transform %s: %v", ErrUnavailable, in.Filename, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return out, nil
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		d := failure.Error
		if d == nil {
			d = &Diagnostic{Message: resp.String()}
		}
		if d.File == "" {
			d.File = in.Filename
		}
		return Result{}, d
	default:
		return Result{}, fmt.Errorf("%w: transform %s: status %d", ErrUnavailable, in.Filename, resp.StatusCode())
	}
}
