package probe

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the raw result of one probe: either Responded or
// TransportFailure. Exactly one is produced per Probe call.
type Outcome interface {
	isOutcome()
}

// Responded means an HTTP response arrived, whatever its status code.
type Responded struct {
	StatusCode int
	Elapsed    time.Duration // until response headers
}

func (Responded) isOutcome() {}

// FailureKind classifies why no response was obtained.
type FailureKind string

const (
	KindTLS        FailureKind = "TLS_ERROR"
	KindConnection FailureKind = "CONNECTION_ERROR"
	KindOther      FailureKind = "OTHER"
)

// TransportFailure means the request never produced a response.
// It is recovered into a status row and never aborts a run.
type TransportFailure struct {
	Kind   FailureKind
	Detail string
}

func (TransportFailure) isOutcome() {}

func (f TransportFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Prober performs a single GET against url.
type Prober interface {
	Probe(ctx context.Context, url string) Outcome
}
