package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/dental"
	"github.com/madadental/clinic-api/internal/imagestore"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/repository"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetPatientByCode(ctx context.Context, code string) (*model.Patient, error)
	ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   repository.PatientRepository
	images imagestore.Service
}

func NewService(repo repository.PatientRepository, images imagestore.Service) *Service {
	return &Service{
		repo:   repo,
		images: images,
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	treatments := make([]model.Treatment, len(req.Treatments))
	for i, input := range req.Treatments {
		t, err := buildTreatment(&input, true)
		if err != nil {
			return nil, err
		}
		treatments[i] = *t
	}

	images, err := s.uploadImages(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		ID:              uuid.New(),
		Name:            req.Name,
		Phone:           req.Phone,
		Age:             req.Age,
		Occupation:      req.Occupation,
		Notes:           req.Notes,
		NextSessionDate: req.NextSessionDate,
		Illnesses:       trimIllnesses(req.Illnesses),
		Medicines:       trimMedicines(req.Medicines),
		Treatments:      treatments,
		Images:          images,
	}

	// The unique index on code is the backstop for concurrent creates; on a
	// collision we regenerate and retry the insert.
	for attempt := 0; ; attempt++ {
		code, err := s.generateCode(ctx)
		if err != nil {
			return nil, err
		}
		patient.Code = code

		if err := s.marshalJSONFields(patient); err != nil {
			return nil, fmt.Errorf("failed to marshal patient fields: %w", err)
		}

		err = s.repo.Create(ctx, patient)
		if err == nil {
			break
		}
		if apperrors.IsConflict(err) && attempt < 2 {
			continue
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.unmarshalJSONFields(patient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patient fields: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatientByCode(ctx context.Context, code string) (*model.Patient, error) {
	patient, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.unmarshalJSONFields(patient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patient fields: %w", err)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	patients, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for _, patient := range patients {
		if err := s.unmarshalJSONFields(patient); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal patient %s: %w", patient.ID, err)
		}
	}
	return patients, total, nil
}

// UpdatePatient applies the combined PATCH payload through the mutation
// pipeline and persists the result in one compare-and-swap save.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.unmarshalJSONFields(patient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patient fields: %w", err)
	}

	for _, step := range mutationPipeline {
		if !step.applies(req) {
			continue
		}
		if err := step.apply(ctx, s, patient, req); err != nil {
			return nil, err
		}
		log.Debug().Str("step", step.name).Stringer("patient_id", id).Msg("applied patch step")
	}

	if err := s.marshalJSONFields(patient); err != nil {
		return nil, fmt.Errorf("failed to marshal patient fields: %w", err)
	}
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// DeletePatient hard-deletes the record, then clears the patient's images off
// the external host. Host failures only warn; the record is the source of
// truth.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.unmarshalJSONFields(patient); err != nil {
		return fmt.Errorf("failed to unmarshal patient fields: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, img := range patient.Images {
		if err := s.images.Delete(ctx, img.URL); err != nil {
			log.Warn().Err(err).Str("url", img.URL).Msg("failed to delete hosted image")
		}
	}
	return nil
}

func (s *Service) uploadImages(ctx context.Context, uploads []model.ImageUpload) ([]model.Image, error) {
	images := make([]model.Image, 0, len(uploads))
	for _, upload := range uploads {
		url, err := s.images.Upload(ctx, upload.Filename, upload.Data)
		if err != nil {
			return nil, apperrors.Internal("image upload failed", err)
		}
		images = append(images, model.Image{
			ID:         uuid.New(),
			URL:        url,
			UploadedAt: time.Now(),
		})
	}
	return images, nil
}

func validateCreate(req *model.CreatePatientRequest) error {
	if req.Name == "" || req.Phone == "" || req.Age == "" {
		return apperrors.BadRequest("missing required fields (name, phone, age)", nil)
	}
	if len(req.Treatments) == 0 {
		return apperrors.BadRequest("at least one treatment is required", nil)
	}
	for i := range req.Treatments {
		if err := validateTreatmentInput(&req.Treatments[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateTreatmentInput(input *model.TreatmentInput) error {
	if len(input.Names) == 0 || strings.TrimSpace(input.Names[0].Name) == "" {
		return apperrors.BadRequest("each treatment must include at least one valid name", nil)
	}
	if input.Cost <= 0 {
		return apperrors.BadRequest("each treatment must include a valid cost", nil)
	}
	if len(input.Teeth) == 0 {
		return apperrors.BadRequest("each treatment must include at least one tooth", nil)
	}
	if input.Currency != "" && !input.Currency.Valid() {
		return apperrors.BadRequest("invalid treatment currency", nil)
	}
	return nil
}

// buildTreatment turns a wire treatment into a stored one: a fresh id when
// none was supplied (or always, for creates), macro teeth expanded, and
// currencies defaulted to SYP.
func buildTreatment(input *model.TreatmentInput, forceNewID bool) (*model.Treatment, error) {
	if err := validateTreatmentInput(input); err != nil {
		return nil, err
	}

	id := input.ID
	if forceNewID || id == uuid.Nil {
		id = uuid.New()
	}

	names := make([]model.TreatmentName, len(input.Names))
	for i, n := range input.Names {
		names[i] = model.TreatmentName{Name: strings.TrimSpace(n.Name)}
	}

	sessions := make([]model.Session, len(input.Sessions))
	for i := range input.Sessions {
		sessions[i] = buildSession(&input.Sessions[i], forceNewID)
	}

	return &model.Treatment{
		ID:       id,
		Names:    names,
		Cost:     input.Cost,
		Currency: input.Currency.OrDefault(),
		Teeth:    dental.Resolve(input.Teeth),
		Sessions: sessions,
	}, nil
}

func buildSession(input *model.SessionInput, forceNewID bool) model.Session {
	id := input.ID
	if forceNewID || id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now()
	session := model.Session{
		ID:              id,
		SessionDate:     now,
		Payments:        input.Payments,
		PaymentCurrency: input.PaymentCurrency.OrDefault(),
		PaymentsDate:    now,
	}
	if input.SessionDate != nil {
		session.SessionDate = *input.SessionDate
	}
	if input.PaymentsDate != nil {
		session.PaymentsDate = *input.PaymentsDate
	}
	return session
}

// trimIllnesses normalizes whitespace and drops blank rows left behind by
// the dashboard's dynamic form fields.
func trimIllnesses(in []model.Illness) []model.Illness {
	out := make([]model.Illness, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v.Illness); t != "" {
			out = append(out, model.Illness{Illness: t})
		}
	}
	return out
}

func trimMedicines(in []model.Medicine) []model.Medicine {
	out := make([]model.Medicine, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v.Medicine); t != "" {
			out = append(out, model.Medicine{Medicine: t})
		}
	}
	return out
}

func (s *Service) marshalJSONFields(patient *model.Patient) error {
	var err error
	if patient.Illnesses == nil {
		patient.Illnesses = []model.Illness{}
	}
	if patient.Medicines == nil {
		patient.Medicines = []model.Medicine{}
	}
	if patient.Treatments == nil {
		patient.Treatments = []model.Treatment{}
	}
	if patient.Images == nil {
		patient.Images = []model.Image{}
	}
	if patient.IllnessesJSON, err = json.Marshal(patient.Illnesses); err != nil {
		return err
	}
	if patient.MedicinesJSON, err = json.Marshal(patient.Medicines); err != nil {
		return err
	}
	if patient.TreatmentsJSON, err = json.Marshal(patient.Treatments); err != nil {
		return err
	}
	if patient.ImagesJSON, err = json.Marshal(patient.Images); err != nil {
		return err
	}
	return nil
}

func (s *Service) unmarshalJSONFields(patient *model.Patient) error {
	if len(patient.IllnessesJSON) > 0 {
		if err := json.Unmarshal(patient.IllnessesJSON, &patient.Illnesses); err != nil {
			return err
		}
	}
	if len(patient.MedicinesJSON) > 0 {
		if err := json.Unmarshal(patient.MedicinesJSON, &patient.Medicines); err != nil {
			return err
		}
	}
	if len(patient.TreatmentsJSON) > 0 {
		if err := json.Unmarshal(patient.TreatmentsJSON, &patient.Treatments); err != nil {
			return err
		}
	}
	if len(patient.ImagesJSON) > 0 {
		if err := json.Unmarshal(patient.ImagesJSON, &patient.Images); err != nil {
			return err
		}
	}
	return nil
}
