// Package health decides whether a probe outcome counts as healthy.
package health

import (
	"fmt"

	"github.com/guregu/null/v5"

	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/probe"
)

const (
	MsgTLS     = "SSL error"
	MsgConnect = "failed to connect"
)

// Classification is what gets persisted for one probe.
type Classification struct {
	Success    bool
	StatusCode null.Int
	Elapsed    null.Float // seconds
	Message    null.String
}

// Classify is pure. Any status code above domain.SuccessCeiling fails,
// including 201 and 3xx; a transport failure always fails.
func Classify(o probe.Outcome) Classification {
	switch v := o.(type) {
	case probe.Responded:
		return Classification{
			Success:    v.StatusCode <= domain.SuccessCeiling,
			StatusCode: null.IntFrom(int64(v.StatusCode)),
			Elapsed:    null.FloatFrom(v.Elapsed.Seconds()),
		}
	case probe.TransportFailure:
		return Classification{Message: null.StringFrom(failureMessage(v))}
	default:
		return Classification{Message: null.StringFrom(fmt.Sprintf("other failure: unknown outcome %T", o))}
	}
}

func failureMessage(f probe.TransportFailure) string {
	switch f.Kind {
	case probe.KindTLS:
		return MsgTLS
	case probe.KindConnection:
		return MsgConnect
	default:
		return "other failure: " + f.Detail
	}
}

// Result builds the status row for site from a classification.
func (c Classification) Result(site domain.Site, checkedDate int64) domain.ProbeResult {
	return domain.ProbeResult{
		CheckedDate: checkedDate,
		SiteName:    site.Name,
		SiteURL:     site.URL,
		StatusCode:  c.StatusCode,
		Elapsed:     c.Elapsed,
		Message:     c.Message,
	}
}
