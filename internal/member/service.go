package member

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateMemberDTO) (*Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	Update(ctx context.Context, id int64, dto UpdateMemberDTO) (*Member, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func duplicateError(field string) error {
	return internal.NewConflictError("a member with this "+field+" already exists", internal.ErrCodeDuplicateMember).
		WithDetails(map[string]string{"field": field})
}

func (s *Service) Create(ctx context.Context, dto CreateMemberDTO) (*Member, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = normalizeEmail(dto.Email)
	dto.Phone = normalizePhone(dto.Phone)
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	m := &membershipmodel.Member{
		CompanyID: companyID,
		Name:      dto.Name,
		Email:     dto.Email,
		Phone:     dto.Phone,
		IsActive:  true,
	}
	err = s.repo.Transaction(ctx, func(tx TxRepository) error {
		field, err := tx.DuplicateField(ctx, m.Email, m.Phone, 0)
		if err != nil {
			return err
		}
		if field != "" {
			return duplicateError(field)
		}
		if err := tx.Create(ctx, m); err != nil {
			return err
		}
		entry, err := audit.NewEntry(ctx, "member.created", audit.EntityMember, m.ID, map[string]interface{}{
			"member_name": m.Name,
		})
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, s.wrapError(err, "failed to create member")
	}

	s.logger.InfoContext(ctx, "member created", "member_id", m.ID)
	return FromDataModel(m), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrapError(err, "failed to load member")
	}
	return FromDataModel(m), nil
}

func (s *Service) List(ctx context.Context) ([]*Member, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.wrapError(err, "failed to list members")
	}
	return FromDataModelSlice(members), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateMemberDTO) (*Member, error) {
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		dto.Name = &name
	}
	emailSet, phoneSet := dto.Email != nil, dto.Phone != nil
	dto.Email = normalizeEmail(dto.Email)
	dto.Phone = normalizePhone(dto.Phone)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *membershipmodel.Member
	err := s.repo.Transaction(ctx, func(tx TxRepository) error {
		m, err := tx.LockMember(ctx, id)
		if err != nil {
			return err
		}

		changed := []string{}
		if dto.Name != nil && *dto.Name != m.Name {
			m.Name = *dto.Name
			changed = append(changed, "name")
		}
		// An empty string clears the field.
		if emailSet && !sameValue(m.Email, dto.Email) {
			m.Email = dto.Email
			changed = append(changed, "email")
		}
		if phoneSet && !sameValue(m.Phone, dto.Phone) {
			m.Phone = dto.Phone
			changed = append(changed, "phone")
		}
		if dto.IsActive != nil && *dto.IsActive != m.IsActive {
			m.IsActive = *dto.IsActive
			changed = append(changed, "is_active")
		}
		updated = m
		if len(changed) == 0 {
			return nil
		}

		field, err := tx.DuplicateField(ctx, m.Email, m.Phone, m.ID)
		if err != nil {
			return err
		}
		if field != "" {
			return duplicateError(field)
		}
		if err := tx.Save(ctx, m); err != nil {
			return err
		}
		entry, err := audit.NewEntry(ctx, "member.updated", audit.EntityMember, m.ID, map[string]interface{}{
			"member_name": m.Name,
			"changed":     changed,
		})
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, s.wrapError(err, "failed to update member")
	}
	return FromDataModel(updated), nil
}

// Delete removes a member together with their memberships, hold history and
// payments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(tx TxRepository) error {
		m, err := tx.LockMember(ctx, id)
		if err != nil {
			return err
		}
		removed, err := tx.Delete(ctx, m.ID)
		if err != nil {
			return err
		}
		entry, err := audit.NewEntry(ctx, "member.deleted", audit.EntityMember, m.ID, map[string]interface{}{
			"member_name": m.Name,
			"memberships": removed.Memberships,
			"holds":       removed.Holds,
			"payments":    removed.Payments,
		})
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return s.wrapError(err, "failed to delete member")
	}
	s.logger.InfoContext(ctx, "member deleted", "member_id", id)
	return nil
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// wrapError also turns a unique violation that slipped past the duplicate
// check into a Conflict.
func (s *Service) wrapError(err error, message string) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if internal.IsUniqueViolation(err) {
		return internal.NewConflictError("a member with this email or phone already exists", internal.ErrCodeDuplicateMember)
	}
	return internal.NewInternalError(message, err)
}
