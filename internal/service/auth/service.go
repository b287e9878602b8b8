package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/madadental/clinic-api/config"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/repository"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

// scheme discriminates admin and patient tokens. A token minted under one
// scheme never validates under the other.
const (
	schemeAdmin   = "admin"
	schemePatient = "patient"
)

// AuthService issues and validates session tokens for both the dashboard and
// the patient portal.
type AuthService interface {
	AdminSignUp(ctx context.Context, req *model.AdminSignUpRequest) (*model.Admin, error)
	AdminSignIn(ctx context.Context, req *model.AdminSignInRequest) (string, *model.Admin, error)
	PatientLogin(ctx context.Context, req *model.PatientLoginRequest) (string, *model.Patient, error)
	ValidateAdminToken(token string) (*model.AdminPrincipal, error)
	ValidatePatientToken(token string) (*model.PatientPrincipal, error)
	TokenExpiry() time.Duration
}

type claims struct {
	Scheme string `json:"scheme"`
	Email  string `json:"email,omitempty"`
	Code   string `json:"code,omitempty"`
	jwt.RegisteredClaims
}

type service struct {
	admins   repository.AdminRepository
	patients repository.PatientRepository
	cfg      config.JWTConfig

	// codeCache memoizes patient-code lookups; entries are keyed by the
	// normalized code and invalidated by TTL only, since codes are immutable.
	codeCache *cache.Cache
}

func NewService(admins repository.AdminRepository, patients repository.PatientRepository, cfg config.JWTConfig) AuthService {
	return &service{
		admins:    admins,
		patients:  patients,
		cfg:       cfg,
		codeCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *service) TokenExpiry() time.Duration {
	return s.cfg.Expiry
}

// AdminSignUp registers a dashboard account. The password is stored as a
// bcrypt hash; a duplicate email surfaces as a conflict from the unique index.
func (s *service) AdminSignUp(ctx context.Context, req *model.AdminSignUpRequest) (*model.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	admin := &model.Admin{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}

	log.Info().Str("email", admin.Email).Msg("admin account created")
	return admin, nil
}

// AdminSignIn verifies credentials and mints an admin session token. Unknown
// email and wrong password return the same error to avoid account probing.
func (s *service) AdminSignIn(ctx context.Context, req *model.AdminSignInRequest) (string, *model.Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	token, err := s.signToken(schemeAdmin, admin.ID, claims{Email: admin.Email}, s.cfg.AdminSecret)
	if err != nil {
		return "", nil, apperrors.Internal("failed to sign token", err)
	}

	log.Info().Str("email", admin.Email).Msg("admin signed in")
	return token, admin, nil
}

// PatientLogin authenticates a portal visitor by patient code.
func (s *service) PatientLogin(ctx context.Context, req *model.PatientLoginRequest) (string, *model.Patient, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", nil, apperrors.BadRequest("code is required", nil)
	}

	patient, err := s.lookupByCode(ctx, code)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", nil, apperrors.Unauthorized("invalid code", nil)
		}
		return "", nil, err
	}

	token, err := s.signToken(schemePatient, patient.ID, claims{Code: patient.Code}, s.cfg.PatientSecret)
	if err != nil {
		return "", nil, apperrors.Internal("failed to sign token", err)
	}

	log.Info().Str("code", patient.Code).Msg("patient logged in")
	return token, patient, nil
}

func (s *service) lookupByCode(ctx context.Context, code string) (*model.Patient, error) {
	if cached, ok := s.codeCache.Get(code); ok {
		return cached.(*model.Patient), nil
	}
	patient, err := s.patients.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.codeCache.Set(code, patient, cache.DefaultExpiration)
	return patient, nil
}

func (s *service) ValidateAdminToken(token string) (*model.AdminPrincipal, error) {
	cl, err := s.parseToken(token, schemeAdmin, s.cfg.AdminSecret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(cl.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token subject", err)
	}
	return &model.AdminPrincipal{AdminID: id, Email: cl.Email}, nil
}

func (s *service) ValidatePatientToken(token string) (*model.PatientPrincipal, error) {
	cl, err := s.parseToken(token, schemePatient, s.cfg.PatientSecret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(cl.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token subject", err)
	}
	return &model.PatientPrincipal{ID: id, Code: cl.Code}, nil
}

func (s *service) signToken(scheme string, subject uuid.UUID, extra claims, secret string) (string, error) {
	now := time.Now()
	extra.Scheme = scheme
	extra.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, extra).SignedString([]byte(secret))
}

func (s *service) parseToken(tokenString, scheme, secret string) (*claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token", err)
	}

	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token", nil)
	}
	if cl.Scheme != scheme {
		return nil, apperrors.Unauthorized("token scheme mismatch", nil)
	}
	return cl, nil
}
