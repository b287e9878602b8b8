package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/email"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/repository"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

// AppointmentService manages walk-in booking requests.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	ListAppointments(ctx context.Context) ([]*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
}

type Service struct {
	repo   repository.AppointmentRepository
	mailer email.Service
}

func NewService(repo repository.AppointmentRepository, mailer email.Service) *Service {
	return &Service{repo: repo, mailer: mailer}
}

// CreateAppointment records the booking and notifies the clinic inbox. The
// email is best effort; a mail failure never loses the booking.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	status := req.Status
	if status == "" {
		status = model.AppointmentStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}

	appointment := &model.Appointment{
		ID:              uuid.New(),
		Name:            req.Name,
		Phone:           req.Phone,
		AppointmentDate: req.AppointmentDate,
		Notes:           req.Notes,
		Status:          status,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendAppointmentNotice(ctx, appointment.Name, appointment.Phone, appointment.AppointmentDate, appointment.Notes); err != nil {
			log.Warn().Err(err).Stringer("appointment_id", appointment.ID).Msg("failed to send appointment notice")
		}
	}

	log.Info().Stringer("appointment_id", appointment.ID).Time("date", appointment.AppointmentDate).Msg("appointment created")
	return appointment, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*model.Appointment, error) {
	return s.repo.List(ctx)
}

// UpdateAppointment partially merges the request into the stored booking.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		appointment.Name = *req.Name
	}
	if req.Phone != nil {
		appointment.Phone = *req.Phone
	}
	if req.AppointmentDate != nil {
		appointment.AppointmentDate = *req.AppointmentDate
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.BadRequest("invalid appointment status", nil)
		}
		appointment.Status = *req.Status
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}
