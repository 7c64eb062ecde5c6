package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPProber_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), s.URL)
	r, ok := out.(Responded)
	if !ok {
		t.Fatalf("want Responded, got %#v", out)
	}
	if r.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", r.StatusCode)
	}
	if r.Elapsed < 0 {
		t.Fatalf("elapsed should be >= 0, got %v", r.Elapsed)
	}
}

func TestHTTPProber_AnyStatusIsAResponse(t *testing.T) {
	for _, code := range []int{201, 404, 500, 503} {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		out := NewHTTPProber(2*time.Second).Probe(context.Background(), s.URL)
		s.Close()

		r, ok := out.(Responded)
		if !ok || r.StatusCode != code {
			t.Fatalf("code %d: got %#v", code, out)
		}
	}
}

func TestHTTPProber_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s := httptest.NewServer(mux)
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), s.URL+"/old")
	r, ok := out.(Responded)
	if !ok || r.StatusCode != http.StatusOK {
		t.Fatalf("want redirect followed to 200, got %#v", out)
	}
}

func TestHTTPProber_UntrustedCertificateIsTLSError(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	// plain client does not trust the test server's self-signed cert
	out := NewHTTPProber(2*time.Second).Probe(context.Background(), s.URL)
	f, ok := out.(TransportFailure)
	if !ok {
		t.Fatalf("want TransportFailure, got %#v", out)
	}
	if f.Kind != KindTLS {
		t.Fatalf("want %s, got %s (%s)", KindTLS, f.Kind, f.Detail)
	}
}

func TestHTTPProber_PlainHTTPOnHTTPSIsTLSError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), "https://"+s.Listener.Addr().String())
	f, ok := out.(TransportFailure)
	if !ok {
		t.Fatalf("want TransportFailure, got %#v", out)
	}
	if f.Kind != KindTLS {
		t.Fatalf("want %s, got %s (%s)", KindTLS, f.Kind, f.Detail)
	}
}

func TestHTTPProber_RefusedIsConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), "http://"+addr)
	f, ok := out.(TransportFailure)
	if !ok {
		t.Fatalf("want TransportFailure, got %#v", out)
	}
	if f.Kind != KindConnection {
		t.Fatalf("want %s, got %s (%s)", KindConnection, f.Kind, f.Detail)
	}
}

func TestHTTPProber_TimeoutIsOther(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(200)
	}))
	defer s.Close()
	defer close(release)

	out := NewHTTPProber(50*time.Millisecond).Probe(context.Background(), s.URL)
	f, ok := out.(TransportFailure)
	if !ok {
		t.Fatalf("want TransportFailure on timeout, got %#v", out)
	}
	if f.Kind != KindOther {
		t.Fatalf("want %s, got %s (%s)", KindOther, f.Kind, f.Detail)
	}
	if f.Detail == "" {
		t.Fatalf("want non-empty detail")
	}
}

func TestHTTPProber_MalformedURLIsOther(t *testing.T) {
	out := NewHTTPProber(time.Second).Probe(context.Background(), "http://[::1")
	f, ok := out.(TransportFailure)
	if !ok || f.Kind != KindOther {
		t.Fatalf("want OTHER failure, got %#v", out)
	}
}

func TestHTTPProber_SetsUserAgent(t *testing.T) {
	var got string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
	}))
	defer s.Close()

	p := NewHTTPProber(time.Second)
	p.UserAgent = "sitechecker/test"
	p.Probe(context.Background(), s.URL)
	if got != "sitechecker/test" {
		t.Fatalf("user agent not sent, got %q", got)
	}
}

func TestTransportFailure_Error(t *testing.T) {
	f := TransportFailure{Kind: KindConnection, Detail: "dial tcp: refused"}
	if !strings.HasPrefix(f.Error(), "CONNECTION_ERROR") {
		t.Fatalf("unexpected error text %q", f.Error())
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://example.com/path", "example.com"},
		{"http://example.com:8080", "example.com"},
		{"not a url", "not a url"},
	}
	for _, c := range cases {
		if got := HostOf(c.in); got != c.want {
			t.Fatalf("HostOf(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestCheckDNS_InvalidName(t *testing.T) {
	if got := CheckDNS(context.Background(), "https://x").Class; got != DNSInvalidName {
		t.Fatalf("want %s, got %s", DNSInvalidName, got)
	}
	if got := CheckDNS(context.Background(), "  ").Class; got != DNSInvalidName {
		t.Fatalf("want %s, got %s", DNSInvalidName, got)
	}
}

func TestCheckDNS_ResolverUnreachable(t *testing.T) {
	orig := Resolver
	t.Cleanup(func() { Resolver = orig })
	Resolver = &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, errors.New("resolver unreachable")
		},
	}

	st := CheckDNS(context.Background(), "sitecheck-nowhere.invalid")
	if st.Class != DNSServfail {
		t.Fatalf("want %s, got %s (%s)", DNSServfail, st.Class, st.ResolverError)
	}
	if st.ResolverError == "" || len(st.IPs) != 0 || len(st.Nameservers) != 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
}
