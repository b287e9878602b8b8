package model

import "github.com/google/uuid"

// Principal is the authenticated caller of a request. Admin and patient
// sessions are independent schemes; a request carries exactly one of them.
type Principal interface {
	IsAdmin() bool
	PatientID() uuid.UUID
}

// AdminPrincipal is an authenticated dashboard admin.
type AdminPrincipal struct {
	AdminID uuid.UUID
	Email   string
}

func (p AdminPrincipal) IsAdmin() bool        { return true }
func (p AdminPrincipal) PatientID() uuid.UUID { return uuid.Nil }

// PatientPrincipal is an authenticated portal patient, restricted to its own
// record.
type PatientPrincipal struct {
	ID   uuid.UUID
	Code string
}

func (p PatientPrincipal) IsAdmin() bool        { return false }
func (p PatientPrincipal) PatientID() uuid.UUID { return p.ID }
