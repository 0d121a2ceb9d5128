package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// SLA constants. Contracts override the default budgets; the warning fraction
// applies to whichever budget is in effect.
const (
	// DefaultResponseMinutes is the system-wide response budget used when no
	// active contract covers an order's client.
	DefaultResponseMinutes = 60

	// DefaultResolutionMinutes is the system-wide resolution budget used when
	// no active contract covers an order's client.
	DefaultResolutionMinutes = 240

	// SLAWarningFraction is the share of the budget remaining at which an
	// open order is classified as warning (20% of budget left).
	SLAWarningFraction = 0.20
)

// Location tracking constants
const (
	// LocationFreshnessWindow is how long a position report counts as "live".
	// Older reports stay in the table for history but drop out of map queries.
	LocationFreshnessWindow = 10 * time.Minute
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
