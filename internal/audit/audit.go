// Package audit builds append-only audit entries for state changes.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

const PlatformRole = "platform_admin"

const (
	EntityMember     = "member"
	EntityMembership = "membership"
	EntityPayment    = "payment"
	EntityPlan       = "plan"
	EntityRole       = "role"
	EntityUser       = "user"
)

// NewEntry stamps an entry with the actor and company found in ctx.
func NewEntry(ctx context.Context, action, entityType string, entityID int64, details map[string]interface{}) (*auditmodel.Entry, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	entry := &auditmodel.Entry{
		CompanyID:  companyID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}

	if actor, ok := identity.FromContext(ctx); ok {
		entry.UserID = actor.UserID
		entry.UserRole = actor.RoleName
		if actor.Platform {
			entry.UserRole = PlatformRole
		}
		if details == nil {
			details = map[string]interface{}{}
		}
		if _, set := details["actor"]; !set && actor.DisplayName != "" {
			details["actor"] = actor.DisplayName
		}
	}
	if entry.UserRole == "" {
		entry.UserRole = "system"
	}

	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode audit details", err)
		}
		entry.Details = string(raw)
	}
	return entry, nil
}

type Filter struct {
	EntityType string
	EntityID   int64
	Limit      int
}

type RepositoryAPI interface {
	List(ctx context.Context, filter Filter) ([]auditmodel.Entry, error)
}

type Service struct {
	repo RepositoryAPI
}

func NewService(repo RepositoryAPI) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]auditmodel.Entry, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.NewInternalError("failed to list audit log", err)
	}
	return entries, nil
}
