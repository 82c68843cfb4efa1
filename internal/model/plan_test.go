package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitFor_PlanAllowances(t *testing.T) {
	assert.Equal(t, DocumentLimit{N: 10}, LimitFor(PlanStarter))
	assert.Equal(t, DocumentLimit{N: 50}, LimitFor(PlanPro))
	assert.Equal(t, DocumentLimit{Unlimited: true}, LimitFor(PlanBusiness))
}

func TestLimitFor_UnknownPlanFallsBackToStarter(t *testing.T) {
	// A bad billing sync must never unlock unlimited usage.
	assert.Equal(t, DocumentLimit{N: 10}, LimitFor(Plan("enterprise")))
	assert.Equal(t, DocumentLimit{N: 10}, LimitFor(Plan("")))
}

func TestDocumentLimit_AllowsBoundary(t *testing.T) {
	starter := LimitFor(PlanStarter)

	// 9 of 10 used: the 10th document is allowed.
	assert.True(t, starter.Allows(9))
	// 10 of 10 used: the 11th is not.
	assert.False(t, starter.Allows(10))
	assert.False(t, starter.Allows(11))
	assert.True(t, starter.Allows(0))
}

func TestDocumentLimit_UnlimitedAlwaysAllows(t *testing.T) {
	business := LimitFor(PlanBusiness)

	assert.True(t, business.Allows(0))
	assert.True(t, business.Allows(10_000_000))
	assert.False(t, business.Exceeded(10_000_000))
}

func TestDocumentLimit_ExceededBoundary(t *testing.T) {
	starter := LimitFor(PlanStarter)

	// Post-increment counter at exactly the limit is fine.
	assert.False(t, starter.Exceeded(10))
	// One over means the create raced past the allowance and must roll back.
	assert.True(t, starter.Exceeded(11))
}

func TestKnownPlan(t *testing.T) {
	assert.True(t, KnownPlan(PlanStarter))
	assert.True(t, KnownPlan(PlanPro))
	assert.True(t, KnownPlan(PlanBusiness))
	assert.False(t, KnownPlan(Plan("gold")))
}
