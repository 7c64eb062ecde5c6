// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/hamed0406/sitechecker/internal/config"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("%d site(s) configured", len(cfg.Sites)))

	for _, s := range cfg.Sites {
		if strings.HasPrefix(s.URL, "http://") {
			warn(s.Name + " is probed over plain http")
		}
	}

	smtpAddr := net.JoinHostPort(cfg.Email.SMTPHost, strconv.Itoa(cfg.Email.SMTPPort))
	ok("SMTP " + smtpAddr + " tls=" + cfg.Email.TLSPolicy)
	if cfg.Email.TLSPolicy == config.TLSNone && cfg.Email.SMTPUsername != "" {
		warn("SMTP credentials would be sent without TLS; set email.tls_policy to mandatory")
	}
	if cfg.Email.SMTPUsername == "" {
		warn("no SMTP username; sending unauthenticated")
	}

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		ok("database sqlite " + cfg.Database.Path)
	case config.DriverPostgres:
		ok("database postgres (DSN present)")
	case config.DriverMemory:
		warn("database driver memory: results are discarded at exit")
	}

	if len(cfg.API.Keys) == 0 {
		warn("api.keys empty; the history API is open to anyone who can reach " + cfg.API.Addr)
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		warn("api.allowed_origins empty; any browser origin may read the API")
	}

	ok("preflight passed")
}
