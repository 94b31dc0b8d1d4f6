package providers

import "strings"

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// errorSignatures is checked in order; the first matching substring wins.
var errorSignatures = []struct {
	class   ErrorType
	needles []string
}{
	{ErrorQuota, []string{"quota", "credit", "insufficient_quota"}},
	{ErrorRate, []string{"rate", "429"}},
	{ErrorContext, []string{"context", "too long"}},
	{ErrorTransient, []string{"timeout", "temporarily", "unavailable"}},
}

// ClassifyError buckets provider failures for failover decisions: quota and
// rate problems cool the provider down, transient ones retry, permanent
// ones disable it for the run.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range errorSignatures {
		for _, needle := range sig.needles {
			if strings.Contains(msg, needle) {
				return sig.class
			}
		}
	}
	return ErrorPermanent
}
