package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransientKind classifies a transient search failure so the retry policy
// can pick the right backoff.
type TransientKind string

const (
	// KindRateLimit means the provider pushed back on request volume.
	KindRateLimit TransientKind = "rate_limit"
	// KindTimeout means the request exceeded its deadline.
	KindTimeout TransientKind = "timeout"
	// KindConnection means the request never got a usable response.
	KindConnection TransientKind = "connection"
)

// TransientError wraps a failure that is worth retrying.
type TransientError struct {
	Kind TransientKind
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient search error (%s): %v", e.Kind, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// classifyError decides whether an error from a search request is transient
// and, if so, which kind. Permanent errors are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var te *TransientError
	if errors.As(err, &te) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &TransientError{Kind: KindTimeout, Err: err}
		}
		return &TransientError{Kind: KindConnection, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return &TransientError{Kind: KindRateLimit, Err: err}
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"), strings.Contains(msg, "no such host"), strings.Contains(msg, "eof"):
		return &TransientError{Kind: KindConnection, Err: err}
	}
	return err
}
