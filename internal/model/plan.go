package model

// Plan identifies a subscription tier.
type Plan string

const (
	PlanStarter  Plan = "starter"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// DocumentLimit is a monthly document allowance. Unlimited plans set the
// flag; N is meaningless when Unlimited is true. Never encode "unlimited"
// as a negative or floating-point sentinel.
type DocumentLimit struct {
	N         int64
	Unlimited bool
}

// Allows reports whether a company that has already used `used` documents
// this month may create one more.
func (l DocumentLimit) Allows(used int64) bool {
	return l.Unlimited || used < l.N
}

// Exceeded reports whether a post-increment usage count went over the
// allowance. Used for the authoritative in-transaction check.
func (l DocumentLimit) Exceeded(count int64) bool {
	return !l.Unlimited && count > l.N
}

// KnownPlan reports whether p is one of the defined tiers. Callers decide
// how loudly to complain about unknown values.
func KnownPlan(p Plan) bool {
	return p == PlanStarter || p == PlanPro || p == PlanBusiness
}

// LimitFor maps a plan to its monthly document allowance. Unknown plan
// strings fall back to starter limits so a bad billing sync can never
// unlock unlimited usage.
func LimitFor(p Plan) DocumentLimit {
	switch p {
	case PlanPro:
		return DocumentLimit{N: 50}
	case PlanBusiness:
		return DocumentLimit{Unlimited: true}
	default:
		return DocumentLimit{N: 10}
	}
}
