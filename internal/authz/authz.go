package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
)

// Identity is the resolved caller attached to a request after
// authentication. It is passed explicitly into every decision point;
// a nil *Identity means the request carries no valid session.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// Action enumerates the four operations the permission matrix knows.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionForMethod maps an HTTP verb onto a matrix action.
func ActionForMethod(method string) (Action, bool) {
	switch method {
	case "POST":
		return ActionCreate, true
	case "GET", "HEAD":
		return ActionRead, true
	case "PUT", "PATCH":
		return ActionUpdate, true
	case "DELETE":
		return ActionDelete, true
	}
	return "", false
}

// Flags are the four booleans of one permission row.
type Flags struct {
	CanCreate bool `json:"can_create"`
	CanRead   bool `json:"can_read"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

// Allows resolves an action against the flags. The switch is
// exhaustive over the defined actions; anything else is denied.
func (f Flags) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return f.CanCreate
	case ActionRead:
		return f.CanRead
	case ActionUpdate:
		return f.CanUpdate
	case ActionDelete:
		return f.CanDelete
	}
	return false
}

// Decision is the structured result of a non-enforcing check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate answers "may this caller do this action on this entity type".
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Check resolves a permission question without enforcing it.
// Rules, in order: no identity denies; admin allows everything; an
// explicit row decides by its flags; no row falls back to read-only.
func (g *Gate) Check(ctx context.Context, identity *Identity, entityType string, action Action) (Decision, error) {
	if identity == nil {
		return Decision{Allowed: false, Reason: "Not authenticated"}, nil
	}

	if identity.IsAdmin {
		return Decision{Allowed: true}, nil
	}

	var perm models.UserPermission
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ?", identity.UserID, entityType).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if action == ActionRead {
				return Decision{Allowed: true}, nil
			}
			return Decision{Allowed: false, Reason: "Permission denied"}, nil
		}
		return Decision{}, err
	}

	flags := Flags{
		CanCreate: perm.CanCreate,
		CanRead:   perm.CanRead,
		CanUpdate: perm.CanUpdate,
		CanDelete: perm.CanDelete,
	}
	if flags.Allows(action) {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, Reason: "Permission denied"}, nil
}

// Require is the enforcing variant of Check: a denial becomes an error
// that aborts the calling operation.
func (g *Gate) Require(ctx context.Context, identity *Identity, entityType string, action Action) error {
	decision, err := g.Check(ctx, identity, entityType, action)
	if err != nil {
		return err
	}
	if decision.Allowed {
		return nil
	}
	if identity == nil {
		return ErrNotAuthenticated
	}
	return ErrPermissionDenied
}

// UserPermissions returns the raw permission rows for one user, keyed
// by entity type. Administrative display only: it applies neither the
// admin override nor the read-only fallback, so it must never feed an
// authorization decision.
func (g *Gate) UserPermissions(ctx context.Context, userID uuid.UUID) (map[string]Flags, error) {
	var rows []models.UserPermission
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]Flags, len(rows))
	for _, row := range rows {
		out[row.EntityType] = Flags{
			CanCreate: row.CanCreate,
			CanRead:   row.CanRead,
			CanUpdate: row.CanUpdate,
			CanDelete: row.CanDelete,
		}
	}
	return out, nil
}
