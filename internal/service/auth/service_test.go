package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/madadental/clinic-api/config"
	"github.com/madadental/clinic-api/internal/model"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

type fakeAdminRepo struct {
	admins map[string]*model.Admin
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *model.Admin) error {
	if _, exists := r.admins[admin.Email]; exists {
		return apperrors.Conflict("email already registered", nil)
	}
	r.admins[admin.Email] = admin
	return nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	admin, ok := r.admins[email]
	if !ok {
		return nil, apperrors.NotFound("admin", nil)
	}
	return admin, nil
}

type fakeCodeRepo struct {
	patients map[string]*model.Patient
	lookups  int
}

func (r *fakeCodeRepo) Create(context.Context, *model.Patient) error { return nil }
func (r *fakeCodeRepo) Get(context.Context, uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient", nil)
}
func (r *fakeCodeRepo) Update(context.Context, *model.Patient) error { return nil }
func (r *fakeCodeRepo) Delete(context.Context, uuid.UUID) error      { return nil }
func (r *fakeCodeRepo) List(context.Context, *model.PatientFilters) ([]*model.Patient, int, error) {
	return nil, 0, nil
}
func (r *fakeCodeRepo) CodeExists(context.Context, string) (bool, error) { return false, nil }

func (r *fakeCodeRepo) GetByCode(_ context.Context, code string) (*model.Patient, error) {
	r.lookups++
	patient, ok := r.patients[code]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return patient, nil
}

func newTestService(t *testing.T) (AuthService, *fakeAdminRepo, *fakeCodeRepo) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	admins := &fakeAdminRepo{admins: map[string]*model.Admin{
		"dentist@clinic.example": {
			ID:           uuid.New(),
			Email:        "dentist@clinic.example",
			PasswordHash: string(hash),
		},
	}}
	patients := &fakeCodeRepo{patients: map[string]*model.Patient{
		"AB-1234": {ID: uuid.New(), Code: "AB-1234", Name: "Lina Haddad"},
	}}

	cfg := config.JWTConfig{
		AdminSecret:   "admin-secret",
		PatientSecret: "patient-secret",
		Expiry:        time.Hour,
	}
	return NewService(admins, patients, cfg), admins, patients
}

func TestAdminSignUpThenSignIn(t *testing.T) {
	svc, admins, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AdminSignUp(ctx, &model.AdminSignUpRequest{
		Email:    "  Reception@Clinic.Example ",
		Password: "front-desk-pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "reception@clinic.example", created.Email)
	assert.NotContains(t, created.PasswordHash, "front-desk-pw")

	stored, ok := admins.admins["reception@clinic.example"]
	require.True(t, ok)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("front-desk-pw")))

	token, _, err := svc.AdminSignIn(ctx, &model.AdminSignInRequest{
		Email:    "reception@clinic.example",
		Password: "front-desk-pw",
	})
	require.NoError(t, err)
	principal, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, principal.AdminID)
}

func TestAdminSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AdminSignUp(context.Background(), &model.AdminSignUpRequest{
		Email:    "dentist@clinic.example",
		Password: "another-pw-123",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAdminSignIn(t *testing.T) {
	svc, _, _ := newTestService(t)

	token, admin, err := svc.AdminSignIn(context.Background(), &model.AdminSignInRequest{
		Email:    "dentist@clinic.example",
		Password: "s3cret-pw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, principal.AdminID)
	assert.Equal(t, admin.Email, principal.Email)
}

func TestAdminSignInNormalizesEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.AdminSignIn(context.Background(), &model.AdminSignInRequest{
		Email:    "  Dentist@Clinic.Example ",
		Password: "s3cret-pw",
	})
	require.NoError(t, err)
}

func TestAdminSignInRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, wrongPw := svc.AdminSignIn(ctx, &model.AdminSignInRequest{
		Email:    "dentist@clinic.example",
		Password: "wrong",
	})
	_, _, unknown := svc.AdminSignIn(ctx, &model.AdminSignInRequest{
		Email:    "nobody@clinic.example",
		Password: "s3cret-pw",
	})

	// unknown email and wrong password are indistinguishable
	require.Error(t, wrongPw)
	require.Error(t, unknown)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestPatientLogin(t *testing.T) {
	svc, _, _ := newTestService(t)

	token, patient, err := svc.PatientLogin(context.Background(), &model.PatientLoginRequest{Code: "AB-1234"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := svc.ValidatePatientToken(token)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, principal.ID)
	assert.Equal(t, "AB-1234", principal.Code)
}

func TestPatientLoginNormalizesCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, patient, err := svc.PatientLogin(context.Background(), &model.PatientLoginRequest{Code: " ab-1234 "})
	require.NoError(t, err)
	assert.Equal(t, "AB-1234", patient.Code)
}

func TestPatientLoginCachesLookups(t *testing.T) {
	svc, _, patients := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.PatientLogin(ctx, &model.PatientLoginRequest{Code: "AB-1234"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, patients.lookups)
}

func TestPatientLoginUnknownCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.PatientLogin(context.Background(), &model.PatientLoginRequest{Code: "ZZ-9999"})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestTokenSchemesAreNotInterchangeable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	adminToken, _, err := svc.AdminSignIn(ctx, &model.AdminSignInRequest{
		Email:    "dentist@clinic.example",
		Password: "s3cret-pw",
	})
	require.NoError(t, err)
	patientToken, _, err := svc.PatientLogin(ctx, &model.PatientLoginRequest{Code: "AB-1234"})
	require.NoError(t, err)

	_, err = svc.ValidatePatientToken(adminToken)
	assert.Error(t, err)
	_, err = svc.ValidateAdminToken(patientToken)
	assert.Error(t, err)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	token, _, err := svc.AdminSignIn(context.Background(), &model.AdminSignInRequest{
		Email:    "dentist@clinic.example",
		Password: "s3cret-pw",
	})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = svc.ValidateAdminToken(tampered)
	assert.Error(t, err)
}
