// Package ownership decides whether a caller may act on a single outlet.
package ownership

import (
	"context"
	"fmt"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// AssignmentChecker reports whether a representative holds an outlet.
// *assignment.Service satisfies it.
type AssignmentChecker interface {
	Exists(ctx context.Context, repID, outletID int) (bool, error)
}

// OutletFinder resolves an outlet by its business identifier.
// *outlet.Service satisfies it.
type OutletFinder interface {
	FindByUID(ctx context.Context, uid string) (*models.Outlet, error)
}

// RoleSource loads the stored account behind a caller.
// *salesrep.Service satisfies it.
type RoleSource interface {
	Get(ctx context.Context, id int) (*models.SalesRep, error)
}

// Gate authorizes per-outlet operations
type Gate struct {
	assignments AssignmentChecker
	outlets     OutletFinder
	roles       RoleSource
	log         logger.Logger
}

// NewGate creates a new ownership gate. With a nil roles source the admin
// role carried by the token is trusted as is.
func NewGate(assignments AssignmentChecker, outlets OutletFinder, roles RoleSource, log logger.Logger) *Gate {
	return &Gate{
		assignments: assignments,
		outlets:     outlets,
		roles:       roles,
		log:         log.With("component", "ownership"),
	}
}

// Authorize returns nil when caller may act on outletID. Administrators
// always may; everyone else needs an assignment row. A claimed admin role
// is confirmed against the stored account, so a demotion applies before
// the token expires.
func (g *Gate) Authorize(ctx context.Context, caller models.Caller, outletID int) error {
	if caller.IsAdmin() {
		admin, err := g.stillAdmin(ctx, caller.ID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}

	ok, err := g.assignments.Exists(ctx, caller.ID, outletID)
	if err != nil {
		return fmt.Errorf("failed to check outlet ownership: %w", err)
	}
	if !ok {
		g.log.Warn("outlet access denied", "sales_rep_id", caller.ID, "outlet_id", outletID)
		return domain.NewForbiddenError("outlet is not assigned to this sales rep")
	}
	return nil
}

func (g *Gate) stillAdmin(ctx context.Context, id int) (bool, error) {
	if g.roles == nil {
		return true, nil
	}
	acct, err := g.roles.Get(ctx, id)
	if domain.IsNotFound(err) {
		return false, domain.NewUnauthorizedError()
	}
	if err != nil {
		return false, fmt.Errorf("failed to load caller role: %w", err)
	}
	if acct.Role != models.RoleAdmin {
		g.log.Warn("stale admin token", "sales_rep_id", id, "role", acct.Role)
		return false, nil
	}
	return true, nil
}

// Resolve looks the outlet up by uid and authorizes caller against it.
// An unknown uid is NotFound for every caller.
func (g *Gate) Resolve(ctx context.Context, caller models.Caller, uid string) (*models.Outlet, error) {
	o, err := g.outlets.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := g.Authorize(ctx, caller, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}
