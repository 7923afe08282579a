package dto

import (
	"io"
)

// CreateSubdivisionRequest - запрос на создание подразделения
type CreateSubdivisionRequest struct {
	FullName  string `json:"full_name" validate:"required,min=1,max=500"`
	ShortName string `json:"short_name" validate:"required,min=1,max=100"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// UpdateSubdivisionRequest - запрос на редактирование подразделения.
// Version, если передана, должна совпадать с текущей версией строки.
type UpdateSubdivisionRequest struct {
	ID      *int64 `json:"id" validate:"omitempty,min=1"`
	Version *int64 `json:"version" validate:"omitempty,min=1"`
	CreateSubdivisionRequest
}

// WorkerFields - редактируемые поля работника
type WorkerFields struct {
	WorkerName    string  `json:"worker_name" form:"worker_name" validate:"required,min=1,max=300"`
	Sex           string  `json:"sex" form:"sex" validate:"required,oneof=male female"`
	BirthDate     string  `json:"birth_date" form:"birth_date" validate:"required,datetime=2006-01-02"`
	HireDate      string  `json:"hire_date" form:"hire_date" validate:"required,datetime=2006-01-02"`
	SubdivisionID *int64  `json:"subdivision_id" form:"subdivision_id" validate:"omitempty,min=1"`
	Role          *string `json:"role" form:"role" validate:"omitempty,max=200"`
	PhoneNumber   string  `json:"phone_number" form:"phone_number" validate:"required,min=1,max=32"`
	Email         *string `json:"email" form:"email" validate:"omitempty,email"`
}

// CreateWorkerRequest - запрос на приём работника
type CreateWorkerRequest struct {
	WorkerFields
}

// UpdateWorkerRequest - запрос на редактирование работника
type UpdateWorkerRequest struct {
	ID            *int64 `json:"id" form:"id" validate:"omitempty,min=1"`
	Version       *int64 `json:"version" form:"version" validate:"omitempty,min=1"`
	RemovePicture bool   `json:"remove_picture" form:"remove_picture"`
	WorkerFields
}

// TransferWorkerRequest - запрос на перевод работника
type TransferWorkerRequest struct {
	SubdivisionID int64 `json:"subdivision_id" validate:"required,min=1"`
}

// ReportQuery - параметры отчёта по датам
type ReportQuery struct {
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Picture - загруженная фотография
type Picture struct {
	Name    string
	Content io.Reader
}

// SubdivisionResponse - ответ с данными подразделения
type SubdivisionResponse struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	FullName     string  `json:"full_name"`
	ShortName    string  `json:"short_name"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	IsLiquidated bool    `json:"is_liquidated"`
	Version      int64   `json:"version"`
}

// WorkerResponse - ответ с данными работника
type WorkerResponse struct {
	ID            int64                `json:"id"`
	Code          string               `json:"code"`
	WorkerName    string               `json:"worker_name"`
	Sex           string               `json:"sex"`
	BirthDate     string               `json:"birth_date"`
	HireDate      string               `json:"hire_date"`
	FireDate      *string              `json:"fire_date"`
	MoveDate      *string              `json:"move_date"`
	SubdivisionID *int64               `json:"subdivision_id"`
	Subdivision   *SubdivisionResponse `json:"subdivision,omitempty"`
	Role          *string              `json:"role"`
	PhoneNumber   string               `json:"phone_number"`
	Email         *string              `json:"email"`
	PicturePath   *string              `json:"picture_path"`
	IsFired       bool                 `json:"is_fired"`
	Version       int64                `json:"version"`
}

// ReportResponse - ответ с отчётом по работникам
type ReportResponse struct {
	Submitted bool             `json:"submitted"`
	StartDate *string          `json:"start_date,omitempty"`
	EndDate   *string          `json:"end_date,omitempty"`
	Workers   []WorkerResponse `json:"workers"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
