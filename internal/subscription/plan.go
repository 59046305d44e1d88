// Package subscription models account plans and the capabilities they
// entitle. Feature gating is resolved once per request via
// ResolveEntitlements rather than re-derived at each call site.
package subscription

import (
	"strings"
	"time"
)

// Plan is an account's subscription tier.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPlus Plan = "PLUS"
	PlanPro  Plan = "PRO"
)

// ParsePlanID maps an external plan identifier (e.g. from a checkout
// webhook) to a Plan. Returns false for unknown identifiers.
func ParsePlanID(planID string) (Plan, bool) {
	switch strings.ToLower(planID) {
	case "free":
		return PlanFree, true
	case "plus":
		return PlanPlus, true
	case "pro":
		return PlanPro, true
	default:
		return "", false
	}
}

// Subscription is one account's current plan and billing period.
type Subscription struct {
	UserID             string    `json:"user_id"              db:"user_id"`
	Plan               Plan      `json:"plan"                 db:"plan"`
	CurrentPeriodStart time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"   db:"current_period_end"`
}

// Entitlements is the capability set a plan grants, resolved together with
// the deployment's feature flags.
type Entitlements struct {
	AIScanAllowed       bool `json:"ai_scan_allowed"`
	CertIssuanceAllowed bool `json:"cert_issuance_allowed"`
}

// ResolveEntitlements derives the capability set for a plan. aiFeatureOn
// is the deployment-wide feature flag; a plan can never grant a capability
// the deployment has switched off.
func ResolveEntitlements(plan Plan, aiFeatureOn bool) Entitlements {
	return Entitlements{
		AIScanAllowed:       aiFeatureOn && (plan == PlanPlus || plan == PlanPro),
		CertIssuanceAllowed: plan != PlanFree,
	}
}
