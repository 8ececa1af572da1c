package judge

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/seo-optimizer/geo/llm"
)

type generation struct {
	text string
	err  error
}

// Invoke makes a single backend call for persona p, bounded by timeout.
// Every failure is returned as data on the response.
func Invoke(ctx context.Context, backend llm.Backend, prompt string, p Persona, timeout time.Duration) RawResponse {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan generation, 1)
	go func() {
		text, err := backend.Generate(callCtx, p.Model, prompt)
		done <- generation{text: text, err: err}
	}()

	var g generation
	select {
	case g = <-done:
	case <-callCtx.Done():
		// Backends that ignore cancellation must not hold the panel past its deadline.
		g.err = callCtx.Err()
	}

	resp := RawResponse{JudgeID: p.ID, Latency: time.Since(start)}
	switch {
	case g.err != nil:
		f := classify(g.err)
		resp.Failure = &f
	case strings.TrimSpace(g.text) == "":
		resp.Failure = &Failure{Kind: KindEmptyResponse, Message: "backend returned no text"}
	default:
		resp.Text = g.text
	}
	return resp
}

func classify(err error) Failure {
	var se *llm.StatusError
	if errors.As(err, &se) {
		return Failure{Kind: KindBackend, StatusCode: se.Code, Message: se.Body}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Failure{Kind: KindTimeout, Message: err.Error()}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Failure{Kind: KindTimeout, Message: err.Error()}
	}
	return Failure{Kind: KindTransport, Message: err.Error()}
}
