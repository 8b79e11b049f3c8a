package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
	"github.com/campus-events/event-system/internal/pkg/metrics"
)

// AuthService implements member registration and login.
type AuthService struct {
	repo   ports.MemberRepository
	hasher ports.PasswordHasher
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthService(repo ports.MemberRepository, hasher ports.PasswordHasher, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterMemberInput) (*domain.Member, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, &domain.MissingFieldError{Field: "name"}
	case email == "":
		return nil, &domain.MissingFieldError{Field: "email"}
	case in.Password == "":
		return nil, &domain.MissingFieldError{Field: "password"}
	case in.Role == "":
		return nil, &domain.MissingFieldError{Field: "role"}
	}
	role := domain.Role(in.Role)
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Member{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("member_id", created.ID).Str("role", string(role)).Msg("member registered")
	return created, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, *domain.Member, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", nil, &domain.MissingFieldError{Field: "email"}
	}
	if password == "" {
		return "", nil, &domain.MissingFieldError{Field: "password"}
	}

	member, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("unknown_email").Inc()
		}
		return "", nil, err
	}

	if !s.hasher.Verify(password, member.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("bad_password").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(member.ID, member.Role)
	if err != nil {
		return "", nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return token, member, nil
}

func (s *AuthService) WhoAmI(ctx context.Context, id *domain.Identity) (*domain.Member, error) {
	if id == nil {
		return nil, nil
	}
	return s.repo.FindByID(ctx, id.SubjectID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
