package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// classifyError maps a client error to a TransportFailure. TLS problems win
// over everything else, and timeouts are reported as OTHER even when they
// happen while dialing.
func classifyError(err error) TransportFailure {
	switch {
	case isTLSError(err):
		return TransportFailure{Kind: KindTLS, Detail: err.Error()}
	case isTimeout(err):
		return TransportFailure{Kind: KindOther, Detail: err.Error()}
	case isConnectError(err):
		return TransportFailure{Kind: KindConnection, Detail: err.Error()}
	default:
		return TransportFailure{Kind: KindOther, Detail: err.Error()}
	}
}

// net/http replaces the handshake's RecordHeaderError with this text when an
// https URL is answered in plain HTTP; there is no exported sentinel.
const plainHTTPOverTLS = "server gave HTTP response to HTTPS client"

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		recordErr   tls.RecordHeaderError
		opErr       *net.OpError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownCA),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr),
		errors.As(err, &recordErr):
		return true
	case errors.As(err, &opErr) && opErr.Op == "remote error":
		// alert sent by the peer during the handshake
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls: ") || strings.Contains(msg, plainHTTPOverTLS)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectError(err error) bool {
	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
	)
	switch {
	case errors.As(err, &dnsErr):
		return true
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
