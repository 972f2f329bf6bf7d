// Package quota implements the Capability Gate: monthly creation limits per
// subscription plan, backed by usage counters in the Entity Store.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

// Unlimited marks a limit that never blocks.
const Unlimited = -1

// Plan describes what a subscription tier allows.
type Plan struct {
	Name                string `json:"name"`
	MaxTasksPerMonth    int    `json:"maxTasksPerMonth"`
	MaxProjectsPerMonth int    `json:"maxProjectsPerMonth"`
	HasAdvancedSearch   bool   `json:"hasAdvancedSearch"`
	HasDataExport       bool   `json:"hasDataExport"`
}

var (
	Free = Plan{
		Name:                "free",
		MaxTasksPerMonth:    50,
		MaxProjectsPerMonth: 5,
	}
	Pro = Plan{
		Name:                "pro",
		MaxTasksPerMonth:    Unlimited,
		MaxProjectsPerMonth: Unlimited,
		HasAdvancedSearch:   true,
		HasDataExport:       true,
	}
)

// ErrPlanFeature reports a feature the current plan does not include.
var ErrPlanFeature = errors.New("not included in plan")

// CheckSearch rejects advanced filters on plans without advanced search.
func (p Plan) CheckSearch(f model.TaskFilter) error {
	if f.IsAdvanced() && !p.HasAdvancedSearch {
		return fmt.Errorf("advanced search is %w %s", ErrPlanFeature, p.Name)
	}
	return nil
}

// CheckExport rejects data export on plans without it.
func (p Plan) CheckExport() error {
	if !p.HasDataExport {
		return fmt.Errorf("data export is %w %s", ErrPlanFeature, p.Name)
	}
	return nil
}

// PlanByName resolves a configured plan name.
func PlanByName(name string) (Plan, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Free.Name:
		return Free, nil
	case Pro.Name:
		return Pro, nil
	default:
		return Plan{}, fmt.Errorf("unknown plan: %q (expected free or pro)", name)
	}
}

func (p Plan) allows(limit, used int) bool {
	return limit == Unlimited || used < limit
}

// UsageStore persists monthly counters. *db.DB implements it.
type UsageStore interface {
	GetUsage(ctx context.Context, owner, month string) (model.Usage, error)
	IncrementUsage(ctx context.Context, owner, month string, r model.Resource) error
}

// Gate answers capability questions for one owner on one plan.
type Gate struct {
	store UsageStore
	owner string
	plan  Plan
	now   func() time.Time
}

func NewGate(store UsageStore, owner string, plan Plan) *Gate {
	return &Gate{store: store, owner: owner, plan: plan, now: time.Now}
}

// WithClock returns a copy of the gate reading time from now.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	c := *g
	c.now = now
	return &c
}

func (g *Gate) Plan() Plan { return g.plan }

// Usage returns the current month's counters.
func (g *Gate) Usage(ctx context.Context) (model.Usage, error) {
	return g.store.GetUsage(ctx, g.owner, model.MonthKey(g.now()))
}

func (g *Gate) CanCreateTask(ctx context.Context) (bool, error) {
	if g.plan.MaxTasksPerMonth == Unlimited {
		return true, nil
	}
	u, err := g.Usage(ctx)
	if err != nil {
		return false, err
	}
	return g.plan.allows(g.plan.MaxTasksPerMonth, u.Tasks), nil
}

func (g *Gate) CanCreateProject(ctx context.Context) (bool, error) {
	if g.plan.MaxProjectsPerMonth == Unlimited {
		return true, nil
	}
	u, err := g.Usage(ctx)
	if err != nil {
		return false, err
	}
	return g.plan.allows(g.plan.MaxProjectsPerMonth, u.Projects), nil
}

func (g *Gate) IncrementTaskUsage(ctx context.Context) error {
	return g.store.IncrementUsage(ctx, g.owner, model.MonthKey(g.now()), model.ResourceTask)
}

func (g *Gate) IncrementProjectUsage(ctx context.Context) error {
	return g.store.IncrementUsage(ctx, g.owner, model.MonthKey(g.now()), model.ResourceProject)
}

// Report summarizes usage against the plan.
type Report struct {
	Plan  Plan        `json:"plan"`
	Usage model.Usage `json:"usage"`
}

func (g *Gate) Report(ctx context.Context) (Report, error) {
	u, err := g.Usage(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{Plan: g.plan, Usage: u}, nil
}
