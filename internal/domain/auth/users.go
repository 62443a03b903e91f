package auth

import (
	"context"
	"strings"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
)

// UserService manages accounts through the shared lifecycle. A user may edit,
// delete and restore their own account; administrators may act on any account.
type UserService struct {
	*domain.LifecycleService[*User]
	repo UserRepository
}

// NewUserService creates a new user service.
func NewUserService(repo UserRepository, txManager tx.Manager, policy security.MutationPolicy, recorder audit.Recorder) *UserService {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*User]{
		Repo:       repo,
		TxManager:  txManager,
		Policy:     policy,
		Recorder:   recorder,
		EntityName: "user",
	})

	svc := &UserService{LifecycleService: base, repo: repo}
	base.Hooks().OnBeforeUpdate(svc.checkEmail)
	return svc
}

func (s *UserService) checkEmail(ctx context.Context, u *User) error {
	existing, err := s.repo.GetByEmail(ctx, u.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != u.ID {
		return apperror.NewDuplicate("user", "email", u.Email)
	}
	return nil
}

// Patch changes the email or profile image of a user.
func (s *UserService) Patch(ctx context.Context, userID id.ID, p UserPatch) (*User, error) {
	return s.Update(ctx, userID, func(u *User) error {
		if p.Email != nil {
			u.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		}
		if p.ProfileImage != nil {
			img := strings.TrimSpace(*p.ProfileImage)
			if img == "" {
				u.ProfileImage = nil
			} else {
				u.ProfileImage = &img
			}
		}
		return nil
	})
}
