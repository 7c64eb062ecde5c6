// Package notify delivers alert emails. Transport is the seam the alert
// dispatcher depends on; SMTP is the production implementation.
package notify

import "context"

type Transport interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, from, to, subject, body string) error

func (f TransportFunc) Send(ctx context.Context, from, to, subject, body string) error {
	return f(ctx, from, to, subject, body)
}
