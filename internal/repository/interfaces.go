package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/madadental/clinic-api/internal/model"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetByCode(ctx context.Context, code string) (*model.Patient, error)
	// Update persists the patient row with compare-and-swap on Version,
	// returning a Conflict error when a concurrent writer got there first.
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	List(ctx context.Context) ([]*model.Appointment, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
