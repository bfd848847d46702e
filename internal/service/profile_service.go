package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/email"
	"ask-io/internal/repository"
)

const defaultProfileName = "User"

// CreditProvisioner crea la cuenta de creditos de un usuario nuevo.
type CreditProvisioner interface {
	GetOrCreateAccount(ctx context.Context, userID string) (domain.CreditAccount, error)
}

// ProfileService administra perfiles de usuarios verificados.
type ProfileService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	credits  CreditProvisioner
	sender   email.Sender
	appURL   string
	now      func() time.Time
}

type ProfileUpdate struct {
	Name           *string `json:"name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

func NewProfileService(logger *zap.Logger, profiles repository.ProfileRepository, credits CreditProvisioner, sender email.Sender, appURL string) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		logger:   logger,
		profiles: profiles,
		credits:  credits,
		sender:   sender,
		appURL:   appURL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureVerified devuelve el perfil del email verificado, creandolo si no existe.
// El bool indica si el perfil es nuevo.
func (s *ProfileService) EnsureVerified(ctx context.Context, emailAddr, name string) (domain.Profile, bool, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.Profile{}, false, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	profile, err := s.profiles.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if profile.EmailVerifiedAt == nil {
			verifiedAt := s.now()
			if err := s.profiles.MarkEmailVerified(ctx, profile.ID, verifiedAt); err != nil {
				return domain.Profile{}, false, storageErr(err)
			}
			profile.EmailVerifiedAt = &verifiedAt
			s.notify(ctx, profile.Email, email.VerificationSuccess(profile.Name, s.appURL))
		}
		if err := s.provision(ctx, profile.ID); err != nil {
			return domain.Profile{}, false, err
		}
		return profile, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.Profile{}, false, storageErr(err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultProfileName
	}
	now := s.now()
	profile = domain.Profile{
		ID:              newID(),
		Email:           emailAddr,
		Name:            name,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if !isUniqueViolation(err) {
			return domain.Profile{}, false, storageErr(err)
		}
		// un verify concurrente creo el perfil primero
		existing, getErr := s.profiles.GetByEmail(ctx, emailAddr)
		if getErr != nil {
			return domain.Profile{}, false, storageErr(getErr)
		}
		return existing, false, s.provision(ctx, existing.ID)
	}
	if err := s.provision(ctx, profile.ID); err != nil {
		return domain.Profile{}, false, err
	}

	s.logger.Info("profile created", zap.String("profile_id", profile.ID), zap.String("email", emailAddr))
	s.notify(ctx, profile.Email, email.Welcome(profile.Name, s.appURL))
	return profile, true, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Profile{}, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, storageErr(err)
	}
	return profile, nil
}

// Update aplica los campos presentes; un nombre vacio conserva el actual.
func (s *ProfileService) Update(ctx context.Context, id string, in ProfileUpdate) (domain.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		profile.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.ProfilePicture != nil {
		profile.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	profile.UpdatedAt = s.now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, storageErr(err)
	}
	return profile, nil
}

func (s *ProfileService) provision(ctx context.Context, profileID string) error {
	if s.credits == nil {
		return nil
	}
	_, err := s.credits.GetOrCreateAccount(ctx, profileID)
	return err
}

func (s *ProfileService) notify(ctx context.Context, to string, content email.Content) {
	if s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, content.To(to)); err != nil {
		s.logger.Warn("send profile email failed", zap.Error(err), zap.String("email", to), zap.String("subject", content.Subject))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
