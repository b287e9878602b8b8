package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/repository"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

const pqUniqueViolation = "23505"

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, code, name, phone, age, occupation, notes,
			illnesses, medicines, treatments, images, next_session_date,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	patient.Version = 1
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Code,
		patient.Name,
		patient.Phone,
		patient.Age,
		patient.Occupation,
		patient.Notes,
		patient.IllnessesJSON,
		patient.MedicinesJSON,
		patient.TreatmentsJSON,
		patient.ImagesJSON,
		patient.NextSessionDate,
		patient.Version,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.Conflict("patient code already taken", err)
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByCode(ctx context.Context, code string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE code = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient by code: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, phone = $2, age = $3, occupation = $4, notes = $5,
			illnesses = $6, medicines = $7, treatments = $8, images = $9,
			next_session_date = $10, version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
	`
	patient.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Phone,
		patient.Age,
		patient.Occupation,
		patient.Notes,
		patient.IllnessesJSON,
		patient.MedicinesJSON,
		patient.TreatmentsJSON,
		patient.ImagesJSON,
		patient.NextSessionDate,
		patient.UpdatedAt,
		patient.ID,
		patient.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("patient was modified concurrently", nil)
	}
	patient.Version++
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	filters.Normalize()

	where := ""
	args := []interface{}{}
	if s := strings.TrimSpace(filters.Search); s != "" {
		where = ` WHERE name ILIKE $1 OR phone ILIKE $1 OR code ILIKE $1`
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT * FROM patients%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *patientRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM patients WHERE code = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("failed to check patient code: %w", err)
	}
	return exists, nil
}
