package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madadental/clinic-api/internal/model"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

func seedPatient(t *testing.T, svc *Service) *model.Patient {
	t.Helper()

	req := basicCreateRequest()
	req.Treatments[0].Names = []model.TreatmentName{{Name: "Root Canal"}}
	req.Treatments[0].Cost = 200
	req.Treatments[0].Currency = model.CurrencyUSD
	req.Treatments[0].Sessions = []model.SessionInput{{
		Payments: "50",
	}}

	patient, err := svc.CreatePatient(context.Background(), req)
	require.NoError(t, err)
	return patient
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestUpdatePatientBasicFields(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		Name:       strPtr("Sami Khoury"),
		Occupation: strPtr("pharmacist"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Sami Khoury", updated.Name)
	assert.Equal(t, "pharmacist", updated.Occupation)
	// untouched fields keep their values
	assert.Equal(t, patient.Phone, updated.Phone)
	assert.Equal(t, patient.Age, updated.Age)
}

func TestUpdateTreatmentPartialMerge(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		UpdateTreatment: &model.TreatmentUpdate{
			Cost: floatPtr(350),
		},
	})
	require.NoError(t, err)

	tr := updated.Treatments[0]
	assert.Equal(t, 350.0, tr.Cost)
	assert.Equal(t, model.CurrencyUSD, tr.Currency)
	assert.Equal(t, "Root Canal", tr.Names[0].Name)
	require.Len(t, tr.Sessions, 1)
	assert.Equal(t, "50", tr.Sessions[0].Payments)
}

func TestUpdateTreatmentReplacesTeethAndDropsOverrides(t *testing.T) {
	svc, _, _ := newTestService()

	req := basicCreateRequest()
	req.Treatments[0].Teeth = []model.ToothInput{
		{Code: "RU1", CustomTreatment: "veneer"},
		{Code: "RU2"},
	}
	patient, err := svc.CreatePatient(context.Background(), req)
	require.NoError(t, err)
	treatmentID := patient.Treatments[0].ID

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		UpdateTreatment: &model.TreatmentUpdate{
			Teeth: &[]model.ToothInput{{Code: "RU2"}},
		},
	})
	require.NoError(t, err)

	teeth := updated.Treatments[0].Teeth
	require.Len(t, teeth, 1)
	assert.Equal(t, "RU2", teeth[0].Code)
	assert.Empty(t, teeth[0].CustomTreatment)
}

func TestUpdateTreatmentNotFoundLeavesPatientUntouched(t *testing.T) {
	svc, repo, _ := newTestService()
	patient := seedPatient(t, svc)
	updatesBefore := repo.updates

	missing := uuid.New()
	_, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID:     &missing,
		UpdateTreatment: &model.TreatmentUpdate{Cost: floatPtr(999)},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, updatesBefore, repo.updates)

	fetched, err := svc.GetPatient(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, fetched.Treatments[0].Cost)
}

func TestAddSessionToTreatment(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		NewSession:  &model.SessionInput{Payments: "75", PaymentCurrency: model.CurrencyUSD},
	})
	require.NoError(t, err)

	sessions := updated.Treatments[0].Sessions
	require.Len(t, sessions, 2)
	added := sessions[1]
	assert.NotEqual(t, uuid.Nil, added.ID)
	assert.Equal(t, "75", added.Payments)
	assert.Equal(t, model.CurrencyUSD, added.PaymentCurrency)
	assert.False(t, added.SessionDate.IsZero())
}

func TestUpdateSessionPartialMerge(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID
	sessionID := patient.Treatments[0].Sessions[0].ID
	originalDate := patient.Treatments[0].Sessions[0].SessionDate

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		UpdateSession: &model.SessionUpdate{
			SessionID: sessionID,
			Payments:  strPtr("120"),
		},
	})
	require.NoError(t, err)

	session := updated.Treatments[0].Sessions[0]
	assert.Equal(t, "120", session.Payments)
	assert.WithinDuration(t, originalDate, session.SessionDate, time.Second)
}

func TestUpdateSessionUnknownSessionID(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	_, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		UpdateSession: &model.SessionUpdate{
			SessionID: uuid.New(),
			Payments:  strPtr("120"),
		},
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddTreatmentStartsWithNoSessions(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		NewTreatment: &model.TreatmentInput{
			Names: []model.TreatmentName{{Name: "Whitening"}},
			Cost:  80,
			Teeth: []model.ToothInput{{Code: "LU1"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Treatments, 2)
	added := updated.Treatments[1]
	assert.NotEqual(t, uuid.Nil, added.ID)
	assert.Equal(t, "Whitening", added.Names[0].Name)
	assert.Equal(t, model.CurrencySYP, added.Currency)
	assert.NotNil(t, added.Sessions)
	assert.Empty(t, added.Sessions)
}

func TestDeleteLastTreatmentClearsNextSessionDate(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	next := time.Now().Add(48 * time.Hour)
	_, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		NextSessionDate: timePtr(next),
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		DeleteTreatmentID: &treatmentID,
	})
	require.NoError(t, err)

	assert.Empty(t, updated.Treatments)
	assert.Nil(t, updated.NextSessionDate)
}

func TestDeleteTreatmentKeepsNextSessionDateWhenOthersRemain(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	firstID := patient.Treatments[0].ID

	next := time.Now().Add(48 * time.Hour)
	withSecond, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		NewTreatment: &model.TreatmentInput{
			Names: []model.TreatmentName{{Name: "Filling"}},
			Cost:  30,
			Teeth: []model.ToothInput{{Code: "LD4"}},
		},
		NextSessionDate: timePtr(next),
	})
	require.NoError(t, err)
	require.Len(t, withSecond.Treatments, 2)

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		DeleteTreatmentID: &firstID,
	})
	require.NoError(t, err)

	require.Len(t, updated.Treatments, 1)
	assert.Equal(t, "Filling", updated.Treatments[0].Names[0].Name)
	require.NotNil(t, updated.NextSessionDate)
	assert.WithinDuration(t, next, *updated.NextSessionDate, time.Second)
}

func TestDeleteSessionWrongTreatment(t *testing.T) {
	svc, repo, _ := newTestService()
	patient := seedPatient(t, svc)
	sessionID := patient.Treatments[0].Sessions[0].ID
	updatesBefore := repo.updates

	_, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		DeleteSession: &model.SessionRef{
			TreatmentID: uuid.New(),
			SessionID:   sessionID,
		},
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, updatesBefore, repo.updates)
}

func TestDeleteSessionRemovesOnlyTarget(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	withTwo, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID: &treatmentID,
		NewSession:  &model.SessionInput{Payments: "10"},
	})
	require.NoError(t, err)
	require.Len(t, withTwo.Treatments[0].Sessions, 2)
	firstSession := withTwo.Treatments[0].Sessions[0].ID

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		DeleteSession: &model.SessionRef{
			TreatmentID: treatmentID,
			SessionID:   firstSession,
		},
	})
	require.NoError(t, err)

	sessions := updated.Treatments[0].Sessions
	require.Len(t, sessions, 1)
	assert.Equal(t, "10", sessions[0].Payments)
}

func TestReplaceTreatmentsPreservesProvidedSessionIDs(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	sessionID := patient.Treatments[0].Sessions[0].ID

	replacement := []model.TreatmentInput{{
		Names:    []model.TreatmentName{{Name: "Root Canal"}},
		Cost:     250,
		Currency: model.CurrencyUSD,
		Teeth:    []model.ToothInput{{Code: "RU1"}},
		Sessions: []model.SessionInput{{
			ID:       sessionID,
			Payments: "90",
		}},
	}}
	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		Treatments: &replacement,
	})
	require.NoError(t, err)

	require.Len(t, updated.Treatments, 1)
	require.Len(t, updated.Treatments[0].Sessions, 1)
	assert.Equal(t, sessionID, updated.Treatments[0].Sessions[0].ID)
	assert.Equal(t, "90", updated.Treatments[0].Sessions[0].Payments)
}

func TestUpdateIllnessesAndMedicines(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)

	illnesses := []model.Illness{{Illness: "diabetes"}, {Illness: "  "}}
	medicines := []model.Medicine{{Medicine: "insulin"}}
	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		Illnesses: &illnesses,
		Medicines: &medicines,
	})
	require.NoError(t, err)

	require.Len(t, updated.Illnesses, 1)
	assert.Equal(t, "diabetes", updated.Illnesses[0].Illness)
	require.Len(t, updated.Medicines, 1)
	assert.Equal(t, "insulin", updated.Medicines[0].Medicine)
}

func TestDeleteImagesBestEffort(t *testing.T) {
	svc, _, images := newTestService()

	req := basicCreateRequest()
	req.Images = []model.ImageUpload{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("b")},
	}
	patient, err := svc.CreatePatient(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, patient.Images, 2)

	images.failDelete = true
	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		DeleteImageIDs: []uuid.UUID{patient.Images[0].ID},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 1)
	assert.Equal(t, patient.Images[1].ID, updated.Images[0].ID)
}

func TestAddImagesAppends(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)

	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		NewImages: []model.ImageUpload{{Filename: "scan.jpg", Data: []byte("x")}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 1)
	assert.NotEmpty(t, updated.Images[0].URL)
}

func TestCombinedPayloadAppliesInOrder(t *testing.T) {
	svc, _, _ := newTestService()
	patient := seedPatient(t, svc)
	treatmentID := patient.Treatments[0].ID

	// session append targets the treatment that the same payload deletes;
	// deletion runs later in the pipeline, so the call succeeds and the
	// treatment is gone afterwards.
	updated, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		TreatmentID:       &treatmentID,
		NewSession:        &model.SessionInput{Payments: "5"},
		DeleteTreatmentID: &treatmentID,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Treatments)
}

func TestUpdatePatientNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdatePatient(context.Background(), uuid.New(), &model.UpdatePatientRequest{
		Name: strPtr("nobody"),
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateConflictSurfaces(t *testing.T) {
	svc, repo, _ := newTestService()
	patient := seedPatient(t, svc)

	// simulate a concurrent writer bumping the stored version
	repo.mu.Lock()
	stored := repo.patients[patient.ID]
	stored.Version++
	repo.patients[patient.ID] = stored
	repo.mu.Unlock()

	_, err := svc.UpdatePatient(context.Background(), patient.ID, &model.UpdatePatientRequest{
		Name: strPtr("raced"),
	})
	assert.True(t, apperrors.IsConflict(err))
}
