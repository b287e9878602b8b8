package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCanceled:
		return true
	}
	return false
}

// Appointment is a standalone walk-in booking request. It is not linked to a
// Patient record; the calendar shows these alongside scheduled patient
// sessions.
type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	Name            string            `db:"name" json:"name"`
	Phone           string            `db:"phone" json:"phone"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointmentDate"`
	Notes           string            `db:"notes" json:"notes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

type CreateAppointmentRequest struct {
	Name            string            `json:"name"`
	Phone           string            `json:"phone" binding:"required"`
	AppointmentDate time.Time         `json:"appointmentDate" binding:"required"`
	Notes           string            `json:"notes"`
	Status          AppointmentStatus `json:"status" binding:"omitempty,oneof=pending confirmed canceled"`
}

type UpdateAppointmentRequest struct {
	Name            *string            `json:"name"`
	Phone           *string            `json:"phone"`
	AppointmentDate *time.Time         `json:"appointmentDate"`
	Notes           *string            `json:"notes"`
	Status          *AppointmentStatus `json:"status" binding:"omitempty,oneof=pending confirmed canceled"`
}
