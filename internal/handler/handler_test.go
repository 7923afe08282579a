package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/personnel-api/internal/config"
	"github.com/personnel-api/internal/database"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/handler"
	"github.com/personnel-api/internal/repository"
	"github.com/personnel-api/internal/service"
	"github.com/personnel-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// pngHeader - минимальная сигнатура PNG, достаточная для определения типа
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testServer struct {
	server     *httptest.Server
	uploadsDir string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	dir := t.TempDir()
	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(dir, "personnel.db"),
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, cfg.Driver))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	uploadsDir := filepath.Join(dir, "wwwroot")
	pictures, err := storage.NewFSPictureStorage(uploadsDir, 1<<20)
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	subRepo := repository.NewSubdivisionRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	subService := service.NewSubdivisionService(subRepo, clock)
	workerService := service.NewWorkerService(workerRepo, subRepo, pictures, clock)

	router := handler.NewRouter(
		handler.RouterConfig{MetricsPath: "/metrics", UploadsDir: uploadsDir},
		handler.NewSubdivisionHandler(subService, logger),
		handler.NewWorkerHandler(workerService, 1<<20, logger),
		logger,
	)

	ts := &testServer{server: httptest.NewServer(router.Setup()), uploadsDir: uploadsDir}
	t.Cleanup(func() {
		ts.server.Close()
		sqlDB.Close()
	})
	return ts
}

func (ts *testServer) url(path string) string {
	return ts.server.URL + path
}

func sendJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sendMultipart(t *testing.T, method, url string, fields map[string]string, pictureName string, picture []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if picture != nil {
		fw, err := mw.CreateFormFile("picture", pictureName)
		require.NoError(t, err)
		_, err = fw.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createSubdivision(t *testing.T, ts *testServer, fullName, shortName string) dto.SubdivisionResponse {
	t.Helper()
	resp := sendJSON(t, http.MethodPost, ts.url("/subdivisions"), map[string]any{
		"full_name":  fullName,
		"short_name": shortName,
		"start_date": "2020-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.SubdivisionResponse](t, resp)
}

func workerBody(subdivisionID int64) map[string]any {
	body := map[string]any{
		"worker_name":  "A. Ivanov",
		"sex":          "male",
		"birth_date":   "1990-05-01",
		"hire_date":    "2024-01-01",
		"phone_number": "+7 900 000-00-00",
		"email":        "ivanov@example.com",
	}
	if subdivisionID != 0 {
		body["subdivision_id"] = subdivisionID
	}
	return body
}

func createWorker(t *testing.T, ts *testServer, subdivisionID int64) dto.WorkerResponse {
	t.Helper()
	resp := sendJSON(t, http.MethodPost, ts.url("/workers"), workerBody(subdivisionID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.WorkerResponse](t, resp)
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/health"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/departments"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", decode[dto.ErrorResponse](t, resp).Error)
}

func TestCreateSubdivision_Success(t *testing.T) {
	ts := setupTestServer(t)

	sub := createSubdivision(t, ts, "Engineering", "ENG")
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, "0001", sub.Code)
	assert.Equal(t, "2020-01-01", sub.StartDate)
	assert.False(t, sub.IsLiquidated)
	assert.Nil(t, sub.EndDate)
}

func TestCreateSubdivision_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := sendJSON(t, http.MethodPost, ts.url("/subdivisions"), map[string]any{
		"full_name":  "",
		"short_name": "ENG",
		"start_date": "01.01.2020",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Contains(t, errResp.Fields, "full_name")
	assert.Contains(t, errResp.Fields, "start_date")
}

func TestCreateSubdivision_InvalidJSON(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Post(ts.url("/subdivisions"), "application/json", strings.NewReader("{invalid"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSubdivision_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/subdivisions/999"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSubdivision_InvalidID(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/subdivisions/abc"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateSubdivision_Success(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")

	resp := sendJSON(t, http.MethodPut, ts.url(idPath("/subdivisions", sub.ID, "")), map[string]any{
		"id":         sub.ID,
		"version":    sub.Version,
		"full_name":  "Research and Development",
		"short_name": "R&D",
		"start_date": "2021-02-03",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[dto.SubdivisionResponse](t, resp)
	assert.Equal(t, "Research and Development", updated.FullName)
	assert.Equal(t, "2021-02-03", updated.StartDate)
	assert.Greater(t, updated.Version, sub.Version)
}

func TestUpdateSubdivision_StaleVersion(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")

	body := map[string]any{
		"version":    sub.Version,
		"full_name":  "First",
		"short_name": "F",
		"start_date": "2020-01-01",
	}
	resp := sendJSON(t, http.MethodPut, ts.url(idPath("/subdivisions", sub.ID, "")), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body["full_name"] = "Second"
	resp = sendJSON(t, http.MethodPut, ts.url(idPath("/subdivisions", sub.ID, "")), body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateSubdivision_IDMismatch(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")

	resp := sendJSON(t, http.MethodPut, ts.url(idPath("/subdivisions", sub.ID, "")), map[string]any{
		"id":         sub.ID + 1,
		"full_name":  "Engineering",
		"short_name": "ENG",
		"start_date": "2020-01-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiquidateSubdivision_HiddenFromDefaultList(t *testing.T) {
	ts := setupTestServer(t)
	eng := createSubdivision(t, ts, "Engineering", "ENG")
	createSubdivision(t, ts, "Sales", "SLS")

	resp := sendJSON(t, http.MethodPost, ts.url(idPath("/subdivisions", eng.ID, "/liquidate")), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	active := decode[[]dto.SubdivisionResponse](t, get(t, ts.url("/subdivisions")))
	require.Len(t, active, 1)
	assert.Equal(t, "Sales", active[0].FullName)

	all := decode[[]dto.SubdivisionResponse](t, get(t, ts.url("/subdivisions?show_liquidated=true")))
	require.Len(t, all, 2)
	assert.True(t, all[0].IsLiquidated)
	require.NotNil(t, all[0].EndDate)
	assert.Equal(t, "2024-03-15", *all[0].EndDate)
}

func TestLiquidateSubdivision_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := sendJSON(t, http.MethodPost, ts.url("/subdivisions/42/liquidate"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateWorker_JSON(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")

	w := createWorker(t, ts, sub.ID)
	assert.Equal(t, "0001", w.Code)
	assert.Equal(t, "male", w.Sex)
	assert.Equal(t, "2024-01-01", w.HireDate)
	require.NotNil(t, w.Subdivision)
	assert.Equal(t, "Engineering", w.Subdivision.FullName)
	assert.Nil(t, w.PicturePath)
}

func TestCreateWorker_Validation(t *testing.T) {
	ts := setupTestServer(t)

	body := workerBody(0)
	body["sex"] = "unknown"
	body["email"] = "not-an-email"
	resp := sendJSON(t, http.MethodPost, ts.url("/workers"), body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Contains(t, errResp.Fields, "sex")
	assert.Contains(t, errResp.Fields, "email")
}

func TestCreateWorker_LiquidatedSubdivision(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")
	sendJSON(t, http.MethodPost, ts.url(idPath("/subdivisions", sub.ID, "/liquidate")), nil)

	resp := sendJSON(t, http.MethodPost, ts.url("/workers"), workerBody(sub.ID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateWorker_MultipartWithPicture(t *testing.T) {
	ts := setupTestServer(t)
	sub := createSubdivision(t, ts, "Engineering", "ENG")

	resp := sendMultipart(t, http.MethodPost, ts.url("/workers"), map[string]string{
		"worker_name":    "B. Petrova",
		"sex":            "female",
		"birth_date":     "1992-07-12",
		"hire_date":      "2023-09-01",
		"phone_number":   "+7 900 111-11-11",
		"subdivision_id": strconv.FormatInt(sub.ID, 10),
		"email":          "",
	}, "photo.png", pngHeader)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	w := decode[dto.WorkerResponse](t, resp)
	assert.Equal(t, "B. Petrova", w.WorkerName)
	assert.Nil(t, w.Email)
	require.NotNil(t, w.SubdivisionID)
	assert.Equal(t, sub.ID, *w.SubdivisionID)
	require.NotNil(t, w.PicturePath)
	assert.True(t, strings.HasPrefix(*w.PicturePath, storage.ImagesDir+"/"))
	assert.True(t, strings.HasSuffix(*w.PicturePath, "_photo.png"))

	_, err := os.Stat(filepath.Join(ts.uploadsDir, filepath.FromSlash(*w.PicturePath)))
	require.NoError(t, err)

	img := get(t, ts.url("/"+*w.PicturePath))
	assert.Equal(t, http.StatusOK, img.StatusCode)
}

func TestCreateWorker_NonImagePicture(t *testing.T) {
	ts := setupTestServer(t)

	resp := sendMultipart(t, http.MethodPost, ts.url("/workers"), map[string]string{
		"worker_name":  "B. Petrova",
		"sex":          "female",
		"birth_date":   "1992-07-12",
		"hire_date":    "2023-09-01",
		"phone_number": "+7 900 111-11-11",
	}, "notes.txt", []byte("plain text, not a picture"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateWorker_RemovePicture(t *testing.T) {
	ts := setupTestServer(t)

	fields := map[string]string{
		"worker_name":  "B. Petrova",
		"sex":          "female",
		"birth_date":   "1992-07-12",
		"hire_date":    "2023-09-01",
		"phone_number": "+7 900 111-11-11",
	}
	created := decode[dto.WorkerResponse](t, sendMultipart(t, http.MethodPost, ts.url("/workers"), fields, "photo.png", pngHeader))
	require.NotNil(t, created.PicturePath)

	kept := sendMultipart(t, http.MethodPut, ts.url(idPath("/workers", created.ID, "")), fields, "", nil)
	require.Equal(t, http.StatusOK, kept.StatusCode)
	assert.Equal(t, created.PicturePath, decode[dto.WorkerResponse](t, kept).PicturePath)

	fields["remove_picture"] = "true"
	removed := sendMultipart(t, http.MethodPut, ts.url(idPath("/workers", created.ID, "")), fields, "photo.png", pngHeader)
	require.Equal(t, http.StatusOK, removed.StatusCode)
	assert.Nil(t, decode[dto.WorkerResponse](t, removed).PicturePath)
}

func TestUpdateWorker_JSON(t *testing.T) {
	ts := setupTestServer(t)
	w := createWorker(t, ts, 0)

	body := workerBody(0)
	body["worker_name"] = "A. Ivanov-Smirnov"
	body["role"] = "Engineer"
	body["version"] = w.Version
	resp := sendJSON(t, http.MethodPut, ts.url(idPath("/workers", w.ID, "")), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[dto.WorkerResponse](t, resp)
	assert.Equal(t, "A. Ivanov-Smirnov", updated.WorkerName)
	require.NotNil(t, updated.Role)
	assert.Equal(t, "Engineer", *updated.Role)
}

func TestGetWorker_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/workers/7"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "worker not found", decode[dto.ErrorResponse](t, resp).Error)
}

func TestFireWorker(t *testing.T) {
	ts := setupTestServer(t)
	w := createWorker(t, ts, 0)

	resp := sendJSON(t, http.MethodPost, ts.url(idPath("/workers", w.ID, "/fire")), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Empty(t, decode[[]dto.WorkerResponse](t, get(t, ts.url("/workers"))))

	all := decode[[]dto.WorkerResponse](t, get(t, ts.url("/workers?show_fired=true")))
	require.Len(t, all, 1)
	assert.True(t, all[0].IsFired)
	require.NotNil(t, all[0].FireDate)
	assert.Equal(t, "2024-03-15", *all[0].FireDate)
}

func TestFireWorker_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := sendJSON(t, http.MethodPost, ts.url("/workers/3/fire"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransferWorker(t *testing.T) {
	ts := setupTestServer(t)
	eng := createSubdivision(t, ts, "Engineering", "ENG")
	sales := createSubdivision(t, ts, "Sales", "SLS")
	w := createWorker(t, ts, eng.ID)

	resp := sendJSON(t, http.MethodPost, ts.url(idPath("/workers", w.ID, "/transfer")), map[string]any{
		"subdivision_id": sales.ID,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	moved := decode[dto.WorkerResponse](t, get(t, ts.url(idPath("/workers", w.ID, ""))))
	require.NotNil(t, moved.SubdivisionID)
	assert.Equal(t, sales.ID, *moved.SubdivisionID)
	require.NotNil(t, moved.MoveDate)
	assert.Equal(t, "2024-03-15", *moved.MoveDate)
}

func TestTransferWorker_LiquidatedTarget(t *testing.T) {
	ts := setupTestServer(t)
	eng := createSubdivision(t, ts, "Engineering", "ENG")
	sales := createSubdivision(t, ts, "Sales", "SLS")
	w := createWorker(t, ts, eng.ID)
	sendJSON(t, http.MethodPost, ts.url(idPath("/subdivisions", sales.ID, "/liquidate")), nil)

	resp := sendJSON(t, http.MethodPost, ts.url(idPath("/workers", w.ID, "/transfer")), map[string]any{
		"subdivision_id": sales.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTransferWorker_MissingTarget(t *testing.T) {
	ts := setupTestServer(t)
	w := createWorker(t, ts, 0)

	resp := sendJSON(t, http.MethodPost, ts.url(idPath("/workers", w.ID, "/transfer")), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkerReport(t *testing.T) {
	ts := setupTestServer(t)
	w := createWorker(t, ts, 0)
	sendJSON(t, http.MethodPost, ts.url(idPath("/workers", w.ID, "/fire")), nil)

	unbounded := decode[dto.ReportResponse](t, get(t, ts.url("/workers/report")))
	assert.False(t, unbounded.Submitted)
	assert.Len(t, unbounded.Workers, 1)

	resp := get(t, ts.url("/workers/report?start_date=2024-03-01&end_date=2024-03-31"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bounded := decode[dto.ReportResponse](t, resp)
	assert.True(t, bounded.Submitted)
	require.NotNil(t, bounded.StartDate)
	assert.Equal(t, "2024-03-01", *bounded.StartDate)
	require.Len(t, bounded.Workers, 1)
	assert.Equal(t, w.ID, bounded.Workers[0].ID)

	empty := decode[dto.ReportResponse](t, get(t, ts.url("/workers/report?start_date=2022-01-01&end_date=2022-12-31")))
	assert.Empty(t, empty.Workers)
}

func TestWorkerReport_InvalidDate(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/workers/report?start_date=yesterday&end_date=2024-01-01"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Fields, "start_date")
}

func TestWorkerReportXLSX(t *testing.T) {
	ts := setupTestServer(t)
	createWorker(t, ts, 0)

	resp := get(t, ts.url("/workers/report.xlsx"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A. Ivanov", rows[1][1])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	createSubdivision(t, ts, "Engineering", "ENG")

	resp := get(t, ts.url("/metrics"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `personnel_http_requests_total{method="POST",route="/subdivisions",status="201"}`)
}
