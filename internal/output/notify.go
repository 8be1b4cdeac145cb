package output

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// notify is replaced in tests.
var notify = beeep.Notify

// Summary is the outcome of a run as shown in the desktop notification.
type Summary struct {
	Orgs     int
	Rows     int
	Failures int
	Traces   int64
}

// Title returns the notification title.
func (s Summary) Title() string {
	if s.Failures > 0 {
		return "Billing report finished with failures"
	}
	return "Billing report ready"
}

// Body returns the notification body.
func (s Summary) Body() string {
	body := fmt.Sprintf("%d org(s), %d row(s), %d trace(s)", s.Orgs, s.Rows, s.Traces)
	if s.Failures > 0 {
		body += fmt.Sprintf(", %d failed", s.Failures)
	}
	return body
}

// Notify shows a desktop notification for s.
func Notify(s Summary) error {
	return notify(s.Title(), s.Body(), "")
}
