package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/service"
)

type SubdivisionHandler struct {
	responder
	subService service.SubdivisionService
	validator  *validator.Validate
}

func NewSubdivisionHandler(subService service.SubdivisionService, logger *slog.Logger) *SubdivisionHandler {
	return &SubdivisionHandler{
		responder:  responder{logger: logger},
		subService: subService,
		validator:  newValidator(),
	}
}

func (h *SubdivisionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subService.List(r.Context(), parseBoolQuery(r, "show_liquidated"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]dto.SubdivisionResponse, len(subs))
	for i := range subs {
		resp[i] = toSubdivisionResponse(&subs[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *SubdivisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSubdivisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondValidation(w, err)
		return
	}

	sub, err := h.subService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toSubdivisionResponse(sub))
}

func (h *SubdivisionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid subdivision id", err.Error())
		return
	}

	sub, err := h.subService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toSubdivisionResponse(sub))
}

func (h *SubdivisionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid subdivision id", err.Error())
		return
	}

	var req dto.UpdateSubdivisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondValidation(w, err)
		return
	}

	sub, err := h.subService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toSubdivisionResponse(sub))
}

func (h *SubdivisionHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid subdivision id", err.Error())
		return
	}

	if err := h.subService.Liquidate(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
