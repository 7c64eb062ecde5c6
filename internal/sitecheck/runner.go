// Package sitecheck runs one sequential pass over the configured sites:
// probe, classify, persist, alert.
package sitecheck

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/alert"
	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/health"
	"github.com/hamed0406/sitechecker/internal/probe"
	"github.com/hamed0406/sitechecker/internal/repo"
)

// Alerter is satisfied by *alert.Dispatcher.
type Alerter interface {
	RaiseAlert(ctx context.Context, siteName, siteURL string, status null.Int, message null.String) error
}

type Runner struct {
	Logger  *zap.Logger
	Sites   []domain.Site
	Prober  probe.Prober
	Results repo.ProbeStore
	Alerts  Alerter
	Clock   clockwork.Clock
	// Diagnose is called with the host of a site that failed to connect; the
	// answer only goes to the log. Nil skips the lookup.
	Diagnose func(ctx context.Context, host string) probe.DNSStatus
}

// Report summarises one pass. DispatchErr holds every alert that could not
// be delivered; it never aborts the pass.
type Report struct {
	RunID       string
	Checked     int
	Failed      int
	Alerted     int
	DispatchErr error
}

// RunOnce checks every site once, in order. Each status row is written before
// the alert for it is raised. A storage failure stops the pass and is
// returned together with the partial report.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rep := Report{RunID: uuid.NewString()}
	log := r.Logger.With(zap.String("run_id", rep.RunID))
	log.Info("run_started", zap.Int("sites", len(r.Sites)))

	for _, site := range r.Sites {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		checkedDate := clock.Now().Unix()
		out := r.Prober.Probe(ctx, site.URL)
		c := health.Classify(out)
		row := c.Result(site, checkedDate)

		if err := r.Results.RecordProbe(ctx, row); err != nil {
			log.Error("probe_record_failed", zap.String("site", site.Name), zap.Error(err))
			return rep, err
		}
		rep.Checked++
		log.Info("probe_recorded", recordFields(site, c)...)

		if c.Success {
			continue
		}
		rep.Failed++
		r.diagnose(ctx, log, site, out)

		err := r.Alerts.RaiseAlert(ctx, site.Name, site.URL, c.StatusCode, c.Message)
		var de *alert.DispatchError
		switch {
		case err == nil:
			rep.Alerted++
		case errors.As(err, &de):
			rep.DispatchErr = multierr.Append(rep.DispatchErr, err)
		default:
			log.Error("alert_record_failed", zap.String("site", site.Name), zap.Error(err))
			return rep, err
		}
	}

	log.Info("run_finished",
		zap.Int("checked", rep.Checked),
		zap.Int("failed", rep.Failed),
		zap.Int("alerted", rep.Alerted),
		zap.Int("undelivered", len(multierr.Errors(rep.DispatchErr))),
	)
	return rep, nil
}

// recordFields leaves out the columns that are NULL in the row, so a
// transport failure never logs as status 0.
func recordFields(site domain.Site, c health.Classification) []zap.Field {
	fields := []zap.Field{
		zap.String("site", site.Name),
		zap.String("url", site.URL),
		zap.Bool("success", c.Success),
	}
	if c.StatusCode.Valid {
		fields = append(fields, zap.Int64("status", c.StatusCode.Int64))
	}
	if c.Elapsed.Valid {
		fields = append(fields, zap.Float64("elapsed_s", c.Elapsed.Float64))
	}
	if c.Message.Valid {
		fields = append(fields, zap.String("message", c.Message.String))
	}
	return fields
}

func (r *Runner) diagnose(ctx context.Context, log *zap.Logger, site domain.Site, out probe.Outcome) {
	f, ok := out.(probe.TransportFailure)
	if !ok || f.Kind != probe.KindConnection || r.Diagnose == nil {
		return
	}
	st := r.Diagnose(ctx, probe.HostOf(site.URL))
	log.Warn("connect_failed_dns",
		zap.String("site", site.Name),
		zap.String("host", st.Domain),
		zap.String("class", string(st.Class)),
		zap.String("cname", st.CNAME),
		zap.String("resolver_error", st.ResolverError),
	)
}
