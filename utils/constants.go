package utils

// Context keys used to propagate request metadata into flows
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Click tracking constants
const (
	// UnknownLabel is the bucket used for missing platform/badge/concept values
	UnknownLabel = "unknown"

	// ClickIPMaxLen bounds the stored click IP length
	ClickIPMaxLen = 15

	// ClickUserAgentMaxLen bounds the stored click user agent length
	ClickUserAgentMaxLen = 100
)

// Truncate returns s cut to at most max bytes.
func Truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
