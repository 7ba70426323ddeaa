package payments

import "strings"

// applyResult moves p to the status implied by a client-reported outcome.
// Unknown outcomes leave the status untouched.
func applyResult(p *Payment, reported, errMsg string) {
	status := strings.ToUpper(reported)

	switch {
	case strings.Contains(status, "SUCCEEDED"):
		p.Status = StatusSucceeded
		p.LastError = ""
	case strings.Contains(status, "FAILED"), strings.Contains(status, "CANCELED"):
		p.Status = StatusFailed
		p.LastError = truncate(errMsg, MaxLastErrorLen)
	case strings.Contains(status, "PROCESSING"), strings.Contains(status, "REQUIRES"):
		p.Status = StatusPending
	}
}
