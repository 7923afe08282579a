package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/export"
	"github.com/personnel-api/internal/service"
)

// multipartOverhead - запас на поля формы сверх размера фотографии
const multipartOverhead = 1 << 20

type WorkerHandler struct {
	responder
	workerService  service.WorkerService
	validator      *validator.Validate
	formDecoder    *form.Decoder
	maxUploadBytes int64
}

func NewWorkerHandler(workerService service.WorkerService, maxUploadBytes int64, logger *slog.Logger) *WorkerHandler {
	return &WorkerHandler{
		responder:      responder{logger: logger},
		workerService:  workerService,
		validator:      newValidator(),
		formDecoder:    form.NewDecoder(),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workerService.List(r.Context(), parseBoolQuery(r, "show_fired"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toWorkerResponses(workers))
}

func (h *WorkerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid worker id", err.Error())
		return
	}

	worker, err := h.workerService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toWorkerResponse(worker))
}

func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorkerRequest
	picture, cleanup, err := h.decodeWorkerRequest(w, r, &req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	defer cleanup()

	if err := h.validator.Struct(&req); err != nil {
		h.respondValidation(w, err)
		return
	}

	worker, err := h.workerService.Create(r.Context(), &req, picture)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toWorkerResponse(worker))
}

func (h *WorkerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid worker id", err.Error())
		return
	}

	var req dto.UpdateWorkerRequest
	picture, cleanup, err := h.decodeWorkerRequest(w, r, &req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	defer cleanup()

	if err := h.validator.Struct(&req); err != nil {
		h.respondValidation(w, err)
		return
	}

	worker, err := h.workerService.Update(r.Context(), id, &req, picture)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toWorkerResponse(worker))
}

func (h *WorkerHandler) Fire(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid worker id", err.Error())
		return
	}

	if err := h.workerService.Fire(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid worker id", err.Error())
		return
	}

	var req dto.TransferWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondValidation(w, err)
		return
	}

	if err := h.workerService.Transfer(r.Context(), id, req.SubdivisionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkerHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	resp := dto.ReportResponse{
		Submitted: report.Submitted(),
		Workers:   toWorkerResponses(report.Workers),
	}
	if report.Period != nil {
		start, end := formatDate(report.Period.Start), formatDate(report.Period.End)
		resp.StartDate, resp.EndDate = &start, &end
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *WorkerHandler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="workers-report.xlsx"`)
	if err := export.WriteWorkersXLSX(w, report.Workers); err != nil {
		h.logger.Error("failed to export report", slog.Any("error", err))
	}
}

func (h *WorkerHandler) buildReport(w http.ResponseWriter, r *http.Request) (*service.Report, bool) {
	query := parseReportQuery(r)
	if err := h.validator.Struct(&query); err != nil {
		h.respondValidation(w, err)
		return nil, false
	}

	report, err := h.workerService.Report(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, err)
		return nil, false
	}
	return report, true
}

func parseReportQuery(r *http.Request) dto.ReportQuery {
	var query dto.ReportQuery
	if v := r.URL.Query().Get("start_date"); v != "" {
		query.StartDate = &v
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		query.EndDate = &v
	}
	return query
}

// decodeWorkerRequest разбирает JSON или форму (multipart/urlencoded) с необязательной фотографией
func (h *WorkerHandler) decodeWorkerRequest(w http.ResponseWriter, r *http.Request, dst any) (*dto.Picture, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, noop, err
		}
		if err := h.formDecoder.Decode(dst, nonEmpty(r.MultipartForm.Value)); err != nil {
			return nil, noop, err
		}

		file, header, err := r.FormFile("picture")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		if err != nil {
			return nil, noop, err
		}
		if header.Size == 0 {
			file.Close()
			return nil, noop, nil
		}
		return &dto.Picture{Name: header.Filename, Content: file}, func() { file.Close() }, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, noop, err
		}
		return nil, noop, h.formDecoder.Decode(dst, nonEmpty(r.PostForm))

	default:
		return nil, noop, json.NewDecoder(r.Body).Decode(dst)
	}
}

// nonEmpty отбрасывает пустые значения формы, чтобы необязательные поля оставались nil
func nonEmpty(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		for _, v := range vals {
			if v != "" {
				out[key] = append(out[key], v)
			}
		}
	}
	return out
}
