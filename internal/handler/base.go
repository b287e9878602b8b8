package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/repository"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

// Record-change event types published through the outbox.
const (
	EventPatientCreate     = "PATIENT_CREATE"
	EventPatientUpdate     = "PATIENT_UPDATE"
	EventPatientDelete     = "PATIENT_DELETE"
	EventAppointmentCreate = "APPOINTMENT_CREATE"
	EventAppointmentUpdate = "APPOINTMENT_UPDATE"
)

// RespondError maps service errors onto HTTP statuses. Unknown errors are
// masked as 500 so internals never leak to clients.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}

// Emitter records outbox events after successful mutations. Emission is best
// effort: a failed outbox insert only delays dashboard refreshes, so it is
// logged and swallowed.
type Emitter struct {
	outbox repository.OutboxRepository
}

func NewEmitter(outbox repository.OutboxRepository) *Emitter {
	return &Emitter{outbox: outbox}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	if e == nil || e.outbox == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    model.OutboxStatusPending,
	}
	if err := e.outbox.Create(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
