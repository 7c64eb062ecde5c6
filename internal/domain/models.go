package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// Site is one monitored endpoint. Name is unique within the configured list.
type Site struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProbeResult is one row of the status table. Rows are append-only.
//
// StatusCode and Elapsed are null when the probe never got a response;
// Message is null on success.
type ProbeResult struct {
	CheckedDate int64       `json:"checked_date"` // unix seconds
	SiteName    string      `json:"site_name"`
	SiteURL     string      `json:"site_url"`
	StatusCode  null.Int    `json:"status_code"`
	Elapsed     null.Float  `json:"elapsed"` // seconds
	Message     null.String `json:"message"`
}

// SuccessCeiling is the highest status code still counted as healthy.
// Anything above it, including other 2xx and 3xx codes, is a failure.
const SuccessCeiling = 200

// Success is derived from StatusCode and cannot be set independently.
func (r ProbeResult) Success() bool {
	return r.StatusCode.Valid && r.StatusCode.Int64 <= SuccessCeiling
}

func (r ProbeResult) CheckedAt() time.Time {
	return time.Unix(r.CheckedDate, 0).UTC()
}

// MessageSent records an alert accepted by the mail transport.
type MessageSent struct {
	SentDate int64  `json:"sent_date"` // unix seconds
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

func (m MessageSent) SentAt() time.Time {
	return time.Unix(m.SentDate, 0).UTC()
}
