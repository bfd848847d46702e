package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ask-io/internal/domain"
)

const (
	jwtIssuer        = "ask-io"
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrJWTInvalid       = errors.New("jwt invalid")
	ErrJWTExpired       = errors.New("jwt expired")
	ErrJWTSecretMissing = errors.New("jwt secret is not configured")
)

// ProfileLookup carga el perfil vigente al rotar una sesion.
type ProfileLookup interface {
	Get(ctx context.Context, id string) (domain.Profile, error)
}

// JWTConfig agrupa lo necesario para emitir sesiones.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Store      RefreshTokenStore
	Profiles   ProfileLookup
}

// JWTService emite sesiones para perfiles verificados y las rota contra el perfil actual.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshTokenStore
	profiles   ProfileLookup
	now        func() time.Time
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims identifica al perfil dueño del token.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrJWTSecretMissing
	}
	if cfg.Profiles == nil {
		return nil, errors.New("jwt: profile lookup is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryRefreshTokenStore()
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      cfg.Store,
		profiles:   cfg.Profiles,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// IssueSession emite el par de tokens para un perfil ya verificado.
func (s *JWTService) IssueSession(ctx context.Context, profile domain.Profile) (TokenPair, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return TokenPair{}, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	now := s.now()
	access, err := s.sign(profile, tokenTypeAccess, "", now, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.sign(profile, tokenTypeRefresh, jti, now, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Store(ctx, jti, profile.ID, s.refreshTTL); err != nil {
		return TokenPair{}, storageErr(err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Rotate consume el refresh token y emite una sesion nueva con el perfil tal como esta hoy.
func (s *JWTService) Rotate(ctx context.Context, refreshToken string) (TokenPair, domain.Profile, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, domain.Profile{}, err
	}
	owner, ok, err := s.store.Consume(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, domain.Profile{}, storageErr(err)
	}
	if !ok || owner != claims.UserID {
		return TokenPair{}, domain.Profile{}, ErrJWTInvalid
	}

	profile, err := s.profiles.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return TokenPair{}, domain.Profile{}, ErrJWTInvalid
		}
		return TokenPair{}, domain.Profile{}, err
	}
	pair, err := s.IssueSession(ctx, profile)
	if err != nil {
		return TokenPair{}, domain.Profile{}, err
	}
	return pair, profile, nil
}

// Revoke invalida un refresh token.
func (s *JWTService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}
	if err := s.store.Revoke(ctx, claims.ID); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	return s.parse(accessToken, tokenTypeAccess)
}

func (s *JWTService) sign(profile domain.Profile, tokenType, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:    profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    jwtIssuer,
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) parse(tokenString, tokenType string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != tokenType || strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return Claims{}, ErrJWTInvalid
	}
	if tokenType == tokenTypeRefresh && claims.ID == "" {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}
