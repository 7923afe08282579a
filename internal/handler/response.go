package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/personnel-api/internal/domain"
	"github.com/personnel-api/internal/dto"
)

// newValidator создаёт валидатор, сообщающий имена полей из json-тегов
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationFields переводит ошибки валидатора в карту поле -> правило
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return fields
}

func extractID(r *http.Request) (int64, error) {
	raw, ok := mux.Vars(r)["id"]
	if !ok || raw == "" {
		return 0, errors.New("id is required")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseBoolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	h.respondJSON(w, status, dto.ErrorResponse{Error: errMsg, Message: details})
}

func (h responder) respondValidation(w http.ResponseWriter, err error) {
	resp := dto.ErrorResponse{Error: "validation error", Fields: validationFields(err)}
	if resp.Fields == nil {
		resp.Message = err.Error()
	}
	h.respondJSON(w, http.StatusBadRequest, resp)
}

func (h responder) handleServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation error", Fields: verr.Fields})
	case errors.Is(err, domain.ErrSubdivisionNotFound):
		h.respondError(w, http.StatusNotFound, "subdivision not found", "")
	case errors.Is(err, domain.ErrWorkerNotFound):
		h.respondError(w, http.StatusNotFound, "worker not found", "")
	case errors.Is(err, domain.ErrIDMismatch):
		h.respondError(w, http.StatusNotFound, "id in body does not match id in path", "")
	case errors.Is(err, domain.ErrConflict):
		h.respondError(w, http.StatusConflict, "record was modified concurrently", "reload the record and retry")
	case errors.Is(err, domain.ErrSubdivisionLiquidated):
		h.respondError(w, http.StatusConflict, "subdivision is liquidated", "")
	case errors.Is(err, domain.ErrInvalidPicture):
		h.respondError(w, http.StatusBadRequest, "picture must be an image", "")
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func toSubdivisionResponse(sub *domain.Subdivision) dto.SubdivisionResponse {
	resp := dto.SubdivisionResponse{
		ID:           sub.ID,
		Code:         sub.Code(),
		FullName:     sub.FullName,
		ShortName:    sub.ShortName,
		StartDate:    formatDate(sub.StartDate),
		IsLiquidated: sub.IsLiquidated,
		Version:      sub.Version,
	}
	if sub.EndDate != nil {
		endDate := formatDate(*sub.EndDate)
		resp.EndDate = &endDate
	}
	return resp
}

func toWorkerResponse(w *domain.Worker) dto.WorkerResponse {
	resp := dto.WorkerResponse{
		ID:            w.ID,
		Code:          w.Code(),
		WorkerName:    w.WorkerName,
		Sex:           string(w.Sex),
		BirthDate:     formatDate(w.BirthDate),
		HireDate:      formatDate(w.HireDate),
		SubdivisionID: w.SubdivisionID,
		Role:          w.Role,
		PhoneNumber:   w.PhoneNumber,
		Email:         w.Email,
		PicturePath:   w.PicturePath,
		IsFired:       w.IsFired,
		Version:       w.Version,
	}
	if w.FireDate != nil {
		fireDate := formatDate(*w.FireDate)
		resp.FireDate = &fireDate
	}
	if w.MoveDate != nil {
		moveDate := formatDate(*w.MoveDate)
		resp.MoveDate = &moveDate
	}
	if w.Subdivision != nil {
		sub := toSubdivisionResponse(w.Subdivision)
		resp.Subdivision = &sub
	}
	return resp
}

func toWorkerResponses(workers []domain.Worker) []dto.WorkerResponse {
	resp := make([]dto.WorkerResponse, len(workers))
	for i := range workers {
		resp[i] = toWorkerResponse(&workers[i])
	}
	return resp
}
