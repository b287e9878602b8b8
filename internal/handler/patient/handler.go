package patient

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/madadental/clinic-api/internal/handler"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/service/patient"
	apperrors "github.com/madadental/clinic-api/pkg/errors"
)

// maxUploadBytes bounds one multipart request, not a single file.
const maxUploadBytes = 32 << 20

type Handler struct {
	service patient.PatientService
	emitter *handler.Emitter
}

func NewHandler(service patient.PatientService, emitter *handler.Emitter) *Handler {
	return &Handler{service: service, emitter: emitter}
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	filters.Normalize()

	patients, total, err := h.service.ListPatients(c.Request.Context(), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.PagedResult{
		Data:       patients,
		Total:      total,
		Page:       filters.Page,
		TotalPages: (total + filters.Limit - 1) / filters.Limit,
	}))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	req, err := parseCreateRequest(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), handler.EventPatientCreate, gin.H{"patientId": p.ID})
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	req, err := parseUpdateRequest(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), handler.EventPatientUpdate, gin.H{"patientId": p.ID})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	if err := h.service.DeletePatient(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), handler.EventPatientDelete, gin.H{"patientId": id})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// parseCreateRequest reads the multipart create form: scalar text fields,
// JSON-encoded array fields, and the raw image files.
func parseCreateRequest(c *gin.Context) (*model.CreatePatientRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.BadRequest("expected multipart form data", err)
	}

	req := &model.CreatePatientRequest{
		Name:       formValue(form, "name"),
		Phone:      formValue(form, "phone"),
		Age:        formValue(form, "age"),
		Occupation: formValue(form, "work"),
		Notes:      formValue(form, "info"),
	}

	if v := formValue(form, "nextSessionDate"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid nextSessionDate", err)
		}
		req.NextSessionDate = &ts
	}

	if err := decodeFormJSON(form, "illnesses", &req.Illnesses); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(form, "Medicines", &req.Medicines); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(form, "treatments", &req.Treatments); err != nil {
		return nil, err
	}

	req.Images, err = readFiles(form.File["images"])
	if err != nil {
		return nil, err
	}
	return req, nil
}

// parseUpdateRequest accepts either a JSON body or a multipart form with the
// same keys JSON-encoded per field, plus optional newImages files.
func parseUpdateRequest(c *gin.Context) (*model.UpdatePatientRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return parseUpdateMultipart(c)
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.BadRequest("invalid request body", err)
	}
	return &req, nil
}

func parseUpdateMultipart(c *gin.Context) (*model.UpdatePatientRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.BadRequest("expected multipart form data", err)
	}

	req := &model.UpdatePatientRequest{}

	if v, ok := formLookup(form, "name"); ok {
		req.Name = &v
	}
	if v, ok := formLookup(form, "phone"); ok {
		req.Phone = &v
	}
	if v, ok := formLookup(form, "age"); ok {
		req.Age = &v
	}
	if v, ok := formLookup(form, "work"); ok {
		req.Occupation = &v
	}
	if v, ok := formLookup(form, "info"); ok {
		req.Notes = &v
	}

	if v, ok := formLookup(form, "treatmentId"); ok {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid treatmentId", err)
		}
		req.TreatmentID = &id
	}
	if v, ok := formLookup(form, "deleteTreatmentId"); ok {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid deleteTreatmentId", err)
		}
		req.DeleteTreatmentID = &id
	}
	if v, ok := formLookup(form, "nextSessionDate"); ok {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid nextSessionDate", err)
		}
		req.NextSessionDate = &ts
	}

	if err := decodeOptionalFormJSON(form, "illnesses", &req.Illnesses); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "Medicines", &req.Medicines); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "treatments", &req.Treatments); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "newSessionData", &req.NewSession); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "updateSessionData", &req.UpdateSession); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "newTreatmentData", &req.NewTreatment); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "updateTreatmentData", &req.UpdateTreatment); err != nil {
		return nil, err
	}
	if err := decodeOptionalFormJSON(form, "deleteSession", &req.DeleteSession); err != nil {
		return nil, err
	}
	if v, ok := formLookup(form, "deleteImageIds"); ok {
		if err := json.Unmarshal([]byte(v), &req.DeleteImageIDs); err != nil {
			return nil, apperrors.BadRequest("invalid deleteImageIds", err)
		}
	}

	req.NewImages, err = readFiles(form.File["newImages"])
	if err != nil {
		return nil, err
	}
	return req, nil
}

func formValue(form *multipart.Form, key string) string {
	if vals, ok := form.Value[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func formLookup(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func decodeFormJSON(form *multipart.Form, key string, target interface{}) error {
	v := formValue(form, key)
	if v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		return apperrors.BadRequest("invalid "+key, err)
	}
	return nil
}

func decodeOptionalFormJSON(form *multipart.Form, key string, target interface{}) error {
	v, ok := formLookup(form, key)
	if !ok || v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		return apperrors.BadRequest("invalid "+key, err)
	}
	return nil
}

func readFiles(headers []*multipart.FileHeader) ([]model.ImageUpload, error) {
	var total int64
	uploads := make([]model.ImageUpload, 0, len(headers))
	for _, header := range headers {
		total += header.Size
		if total > maxUploadBytes {
			return nil, apperrors.BadRequest("uploads exceed size limit", nil)
		}
		f, err := header.Open()
		if err != nil {
			return nil, apperrors.BadRequest("failed to read uploaded file", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.BadRequest("failed to read uploaded file", err)
		}
		uploads = append(uploads, model.ImageUpload{
			Filename: header.Filename,
			Data:     data,
		})
	}
	return uploads, nil
}
