package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/dental"
	"github.com/madadental/clinic-api/internal/model"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

// mutationStep is one named stage of the PATCH pipeline. A single payload may
// combine several mutation intents; they are applied strictly in the order of
// mutationPipeline, so that e.g. a session append addressed to a treatment
// that the same payload deletes is applied before the deletion.
type mutationStep struct {
	name    string
	applies func(req *model.UpdatePatientRequest) bool
	apply   func(ctx context.Context, s *Service, patient *model.Patient, req *model.UpdatePatientRequest) error
}

var mutationPipeline = []mutationStep{
	{"basic_fields", appliesBasicFields, applyBasicFields},
	{"replace_treatments", func(r *model.UpdatePatientRequest) bool { return r.Treatments != nil }, applyReplaceTreatments},
	{"add_session", func(r *model.UpdatePatientRequest) bool { return r.TreatmentID != nil && r.NewSession != nil }, applyAddSession},
	{"update_session", func(r *model.UpdatePatientRequest) bool { return r.TreatmentID != nil && r.UpdateSession != nil }, applyUpdateSession},
	{"add_treatment", func(r *model.UpdatePatientRequest) bool { return r.NewTreatment != nil }, applyAddTreatment},
	{"update_treatment", func(r *model.UpdatePatientRequest) bool { return r.TreatmentID != nil && r.UpdateTreatment != nil }, applyUpdateTreatment},
	{"delete_treatment", func(r *model.UpdatePatientRequest) bool { return r.DeleteTreatmentID != nil }, applyDeleteTreatment},
	{"delete_session", func(r *model.UpdatePatientRequest) bool { return r.DeleteSession != nil }, applyDeleteSession},
	{"next_session_date", func(r *model.UpdatePatientRequest) bool { return r.NextSessionDate != nil }, applyNextSessionDate},
	{"add_images", func(r *model.UpdatePatientRequest) bool { return len(r.NewImages) > 0 }, applyAddImages},
	{"delete_images", func(r *model.UpdatePatientRequest) bool { return len(r.DeleteImageIDs) > 0 }, applyDeleteImages},
}

func appliesBasicFields(r *model.UpdatePatientRequest) bool {
	return r.Name != nil || r.Phone != nil || r.Age != nil || r.Occupation != nil ||
		r.Notes != nil || r.Illnesses != nil || r.Medicines != nil
}

func applyBasicFields(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Occupation != nil {
		patient.Occupation = *req.Occupation
	}
	if req.Notes != nil {
		patient.Notes = *req.Notes
	}
	if req.Illnesses != nil {
		patient.Illnesses = trimIllnesses(*req.Illnesses)
	}
	if req.Medicines != nil {
		patient.Medicines = trimMedicines(*req.Medicines)
	}
	return nil
}

func applyReplaceTreatments(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	treatments := make([]model.Treatment, len(*req.Treatments))
	for i := range *req.Treatments {
		t, err := buildTreatment(&(*req.Treatments)[i], false)
		if err != nil {
			return err
		}
		treatments[i] = *t
	}
	patient.Treatments = treatments
	return nil
}

func applyAddSession(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	treatment := findTreatment(patient, *req.TreatmentID)
	if treatment == nil {
		return apperrors.NotFound("treatment", nil)
	}
	if req.NewSession.PaymentCurrency != "" && !req.NewSession.PaymentCurrency.Valid() {
		return apperrors.BadRequest("invalid payment currency", nil)
	}
	treatment.Sessions = append(treatment.Sessions, buildSession(req.NewSession, true))
	return nil
}

func applyUpdateSession(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	treatment := findTreatment(patient, *req.TreatmentID)
	if treatment == nil {
		return apperrors.NotFound("treatment", nil)
	}
	session := findSession(treatment, req.UpdateSession.SessionID)
	if session == nil {
		return apperrors.NotFound("session", nil)
	}

	upd := req.UpdateSession
	if upd.SessionDate != nil {
		session.SessionDate = *upd.SessionDate
	}
	if upd.Payments != nil {
		session.Payments = *upd.Payments
	}
	if upd.PaymentCurrency != nil {
		if !upd.PaymentCurrency.Valid() {
			return apperrors.BadRequest("invalid payment currency", nil)
		}
		session.PaymentCurrency = *upd.PaymentCurrency
	}
	if upd.PaymentsDate != nil {
		session.PaymentsDate = *upd.PaymentsDate
	}
	return nil
}

func applyAddTreatment(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	input := *req.NewTreatment
	// New treatments always start with an empty session history.
	input.Sessions = nil
	t, err := buildTreatment(&input, true)
	if err != nil {
		return err
	}
	t.Sessions = []model.Session{}
	patient.Treatments = append(patient.Treatments, *t)
	return nil
}

func applyUpdateTreatment(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	treatment := findTreatment(patient, *req.TreatmentID)
	if treatment == nil {
		return apperrors.NotFound("treatment", nil)
	}

	upd := req.UpdateTreatment
	if upd.Names != nil {
		if len(*upd.Names) == 0 || strings.TrimSpace((*upd.Names)[0].Name) == "" {
			return apperrors.BadRequest("treatment must include at least one valid name", nil)
		}
		names := make([]model.TreatmentName, len(*upd.Names))
		for i, n := range *upd.Names {
			names[i] = model.TreatmentName{Name: strings.TrimSpace(n.Name)}
		}
		treatment.Names = names
	}
	if upd.Cost != nil {
		if *upd.Cost <= 0 {
			return apperrors.BadRequest("treatment must include a valid cost", nil)
		}
		treatment.Cost = *upd.Cost
	}
	if upd.Currency != nil {
		if !upd.Currency.Valid() {
			return apperrors.BadRequest("invalid treatment currency", nil)
		}
		treatment.Currency = *upd.Currency
	}
	if upd.Teeth != nil {
		if len(*upd.Teeth) == 0 {
			return apperrors.BadRequest("treatment must include at least one tooth", nil)
		}
		// Re-resolving drops overrides for teeth that left the selection.
		treatment.Teeth = dental.Resolve(*upd.Teeth)
	}
	return nil
}

func applyDeleteTreatment(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	idx := -1
	for i := range patient.Treatments {
		if patient.Treatments[i].ID == *req.DeleteTreatmentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.NotFound("treatment", nil)
	}
	patient.Treatments = append(patient.Treatments[:idx], patient.Treatments[idx+1:]...)

	// Removing the last treatment leaves nothing to schedule.
	if len(patient.Treatments) == 0 {
		patient.NextSessionDate = nil
	}
	return nil
}

func applyDeleteSession(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	treatment := findTreatment(patient, req.DeleteSession.TreatmentID)
	if treatment == nil {
		return apperrors.NotFound("treatment", nil)
	}
	idx := -1
	for i := range treatment.Sessions {
		if treatment.Sessions[i].ID == req.DeleteSession.SessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.NotFound("session", nil)
	}
	treatment.Sessions = append(treatment.Sessions[:idx], treatment.Sessions[idx+1:]...)
	return nil
}

func applyNextSessionDate(_ context.Context, _ *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	date := *req.NextSessionDate
	patient.NextSessionDate = &date
	return nil
}

func applyAddImages(ctx context.Context, s *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	images, err := s.uploadImages(ctx, req.NewImages)
	if err != nil {
		return err
	}
	patient.Images = append(patient.Images, images...)
	return nil
}

// applyDeleteImages removes images from the external host best-effort, then
// filters them out of the record. A host-side failure is logged and does not
// block the list mutation.
func applyDeleteImages(ctx context.Context, s *Service, patient *model.Patient, req *model.UpdatePatientRequest) error {
	toDelete := make(map[uuid.UUID]bool, len(req.DeleteImageIDs))
	for _, id := range req.DeleteImageIDs {
		toDelete[id] = true
	}

	kept := make([]model.Image, 0, len(patient.Images))
	for _, img := range patient.Images {
		if !toDelete[img.ID] {
			kept = append(kept, img)
			continue
		}
		if err := s.images.Delete(ctx, img.URL); err != nil {
			log.Warn().Err(err).Str("url", img.URL).Msg("failed to delete hosted image")
		}
	}
	patient.Images = kept
	return nil
}

func findTreatment(patient *model.Patient, id uuid.UUID) *model.Treatment {
	for i := range patient.Treatments {
		if patient.Treatments[i].ID == id {
			return &patient.Treatments[i]
		}
	}
	return nil
}

func findSession(treatment *model.Treatment, id uuid.UUID) *model.Session {
	for i := range treatment.Sessions {
		if treatment.Sessions[i].ID == id {
			return &treatment.Sessions[i]
		}
	}
	return nil
}
