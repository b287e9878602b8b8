package model

import (
	"time"

	"github.com/google/uuid"
)

// Currency is the billing currency for treatments and session payments.
type Currency string

const (
	CurrencySYP Currency = "SYP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencySYP, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// OrDefault falls back to SYP when no currency was supplied.
func (c Currency) OrDefault() Currency {
	if c == "" {
		return CurrencySYP
	}
	return c
}

// Tooth is one resolved tooth position within a treatment. Code is always an
// individual position from the 32-entry taxonomy, never a macro-group code.
type Tooth struct {
	Code            string `json:"id"`
	Label           string `json:"value"`
	CustomTreatment string `json:"customTreatment"`
}

// TreatmentName wraps a single treatment name, matching the wire shape
// {"name": "..."} used by the dashboard forms.
type TreatmentName struct {
	Name string `json:"name"`
}

// Session is one visit/payment event within a treatment.
type Session struct {
	ID              uuid.UUID `json:"sessionId"`
	SessionDate     time.Time `json:"sessionDate"`
	Payments        string    `json:"Payments"`
	PaymentCurrency Currency  `json:"paymentCurrency"`
	PaymentsDate    time.Time `json:"PaymentsDate"`
}

// Treatment is a billable course of dental work covering one or more teeth.
type Treatment struct {
	ID       uuid.UUID       `json:"treatmentId"`
	Names    []TreatmentName `json:"treatmentNames"`
	Cost     float64         `json:"cost"`
	Currency Currency        `json:"currency"`
	Teeth    []Tooth         `json:"teeth"`
	Sessions []Session       `json:"sessions"`
}

type Illness struct {
	Illness string `json:"illness"`
}

type Medicine struct {
	Medicine string `json:"medicine"`
}

// Image is one uploaded clinical image, hosted externally.
type Image struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"src"`
	UploadedAt time.Time `json:"date"`
}

// Patient is the root document of the clinic: identity plus embedded
// treatments, images and medical notes. Code is the patient's portal login
// credential; ID and Code are immutable after creation.
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"patientId"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	Phone           string     `db:"phone" json:"phone"`
	Age             string     `db:"age" json:"age"`
	Occupation      string     `db:"occupation" json:"work"`
	Notes           string     `db:"notes" json:"info"`
	NextSessionDate *time.Time `db:"next_session_date" json:"nextSessionDate,omitempty"`
	Version         int        `db:"version" json:"-"`

	Illnesses  []Illness   `db:"-" json:"illnesses"`
	Medicines  []Medicine  `db:"-" json:"Medicines"`
	Treatments []Treatment `db:"-" json:"treatments"`
	Images     []Image     `db:"-" json:"images"`

	// Raw JSONB columns; (un)marshaled by the patient service.
	IllnessesJSON  []byte `db:"illnesses" json:"-"`
	MedicinesJSON  []byte `db:"medicines" json:"-"`
	TreatmentsJSON []byte `db:"treatments" json:"-"`
	ImagesJSON     []byte `db:"images" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ToothInput is a selected tooth on the wire: either an individual code or a
// macro-group code awaiting expansion.
type ToothInput struct {
	Code            string `json:"id" binding:"required"`
	CustomTreatment string `json:"customTreatment"`
}

// SessionInput carries session fields for create/append/replace operations.
// ID is honored only on full-array replace; create and append always assign a
// fresh one.
type SessionInput struct {
	ID              uuid.UUID  `json:"sessionId"`
	SessionDate     *time.Time `json:"sessionDate"`
	Payments        string     `json:"Payments"`
	PaymentCurrency Currency   `json:"paymentCurrency" binding:"omitempty,currency"`
	PaymentsDate    *time.Time `json:"PaymentsDate"`
}

// TreatmentInput carries treatment fields for create/replace operations.
type TreatmentInput struct {
	ID       uuid.UUID       `json:"treatmentId"`
	Names    []TreatmentName `json:"treatmentNames"`
	Cost     float64         `json:"cost"`
	Currency Currency        `json:"currency" binding:"omitempty,currency"`
	Teeth    []ToothInput    `json:"teeth"`
	Sessions []SessionInput  `json:"sessions"`
}

// TreatmentUpdate is a partial-merge payload for one treatment; nil fields
// are left unchanged.
type TreatmentUpdate struct {
	Names    *[]TreatmentName `json:"treatmentNames"`
	Cost     *float64         `json:"cost"`
	Currency *Currency        `json:"currency" binding:"omitempty,currency"`
	Teeth    *[]ToothInput    `json:"teeth"`
}

// SessionUpdate is a partial-merge payload for one session within a treatment.
type SessionUpdate struct {
	SessionID       uuid.UUID  `json:"sessionId" binding:"required"`
	SessionDate     *time.Time `json:"sessionDate"`
	Payments        *string    `json:"Payments"`
	PaymentCurrency *Currency  `json:"paymentCurrency" binding:"omitempty,currency"`
	PaymentsDate    *time.Time `json:"PaymentsDate"`
}

// SessionRef addresses one session by (treatmentId, sessionId).
type SessionRef struct {
	TreatmentID uuid.UUID `json:"treatmentId" binding:"required"`
	SessionID   uuid.UUID `json:"sessionId" binding:"required"`
}

// CreatePatientRequest is the parsed multipart create payload.
type CreatePatientRequest struct {
	Name            string
	Phone           string
	Age             string
	Occupation      string
	Notes           string
	NextSessionDate *time.Time
	Illnesses       []Illness
	Medicines       []Medicine
	Treatments      []TreatmentInput
	Images          []ImageUpload
}

// ImageUpload is one raw image file relayed toward the image host.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// UpdatePatientRequest is the combined PATCH payload. Every field is optional;
// multiple mutation intents may be combined in one request and are applied in
// the fixed pipeline order documented in the patient service.
type UpdatePatientRequest struct {
	Name       *string      `json:"name"`
	Phone      *string      `json:"phone"`
	Age        *string      `json:"age"`
	Occupation *string      `json:"work"`
	Notes      *string      `json:"info"`
	Illnesses  *[]Illness   `json:"illnesses"`
	Medicines  *[]Medicine  `json:"Medicines"`

	Treatments *[]TreatmentInput `json:"treatments"`

	TreatmentID     *uuid.UUID       `json:"treatmentId"`
	NewSession      *SessionInput    `json:"newSessionData"`
	UpdateSession   *SessionUpdate   `json:"updateSessionData"`
	NewTreatment    *TreatmentInput  `json:"newTreatmentData"`
	UpdateTreatment *TreatmentUpdate `json:"updateTreatmentData"`

	DeleteTreatmentID *uuid.UUID  `json:"deleteTreatmentId"`
	DeleteSession     *SessionRef `json:"deleteSession"`

	NextSessionDate *time.Time `json:"nextSessionDate"`

	NewImages      []ImageUpload `json:"-"`
	DeleteImageIDs []uuid.UUID   `json:"deleteImageIds"`
}

// PatientFilters narrows patient listings.
type PatientFilters struct {
	Pagination
	Search string `form:"search"`
}
