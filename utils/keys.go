package utils

// ContextKey is the type used for request-scoped values stored in contexts
type ContextKey string

// Context keys propagated from HTTP handlers into flows for audit logging
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
