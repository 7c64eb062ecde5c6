// Package alert formats and dispatches "site down" e-mails and records every
// message the transport accepted.
package alert

import (
	"context"
	"fmt"
	"strconv"

	"github.com/guregu/null/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/notify"
	"github.com/hamed0406/sitechecker/internal/repo"
)

const absent = "n/a"

// DispatchError means the transport rejected or never received the alert.
// Nothing is recorded in that case and the run carries on.
type DispatchError struct {
	Site string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("alert %s: %v", e.Site, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

type Dispatcher struct {
	transport notify.Transport
	store     repo.MessageStore
	from, to  string
	clock     clockwork.Clock
	log       *zap.Logger
}

func NewDispatcher(t notify.Transport, store repo.MessageStore, from, to string, clock clockwork.Clock, log *zap.Logger) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{transport: t, store: store, from: from, to: to, clock: clock, log: log}
}

func Subject(siteName string) string {
	return "site: " + siteName + " is down!"
}

func Body(siteName, siteURL string, status null.Int, message null.String) string {
	code := absent
	if status.Valid {
		code = strconv.FormatInt(status.Int64, 10)
	}
	msg := absent
	if message.Valid {
		msg = message.String
	}
	return fmt.Sprintf("%s : %s\nhas status: %s\nmessage: %s", siteName, siteURL, code, msg)
}

// RaiseAlert sends one message to the configured recipient and, once the
// transport accepts it, appends a message_sent row stamped with the send time.
// A transport failure comes back as *DispatchError; a failed insert comes back
// as the store's *repo.StorageError.
func (d *Dispatcher) RaiseAlert(ctx context.Context, siteName, siteURL string, status null.Int, message null.String) error {
	subject := Subject(siteName)
	body := Body(siteName, siteURL, status, message)

	if err := d.transport.Send(ctx, d.from, d.to, subject, body); err != nil {
		d.log.Warn("alert_dispatch_failed",
			zap.String("site", siteName),
			zap.String("to", d.to),
			zap.Error(err),
		)
		return &DispatchError{Site: siteName, Err: err}
	}

	sent := domain.MessageSent{
		SentDate: d.clock.Now().Unix(),
		To:       d.to,
		From:     d.from,
		Subject:  subject,
		Message:  body,
	}
	if err := d.store.RecordMessageSent(ctx, sent); err != nil {
		return err
	}
	d.log.Info("alert_sent", zap.String("site", siteName), zap.String("to", d.to))
	return nil
}
