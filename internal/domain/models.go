package domain

import (
	"fmt"
	"time"
)

// DateLayout - формат дат на границе API
const DateLayout = "2006-01-02"

// Sex - пол работника
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Subdivision представляет подразделение организации
type Subdivision struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	FullName     string     `json:"full_name" gorm:"type:text;not null"`
	ShortName    string     `json:"short_name" gorm:"type:text;not null"`
	StartDate    time.Time  `json:"start_date" gorm:"type:date;not null"`
	EndDate      *time.Time `json:"end_date" gorm:"type:date"`
	IsLiquidated bool       `json:"is_liquidated" gorm:"not null;default:false"`
	Version      int64      `json:"version" gorm:"not null;default:1"`
}

// TableName задаёт имя таблицы для GORM
func (Subdivision) TableName() string {
	return "subdivisions"
}

// Code возвращает отображаемый код подразделения
func (s Subdivision) Code() string {
	return FormatCode(s.ID)
}

// Liquidate помечает подразделение ликвидированным на указанную дату
func (s *Subdivision) Liquidate(on time.Time) {
	day := Today(on)
	s.IsLiquidated = true
	s.EndDate = &day
}

// Worker представляет работника
type Worker struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	WorkerName    string     `json:"worker_name" gorm:"type:text;not null"`
	Sex           Sex        `json:"sex" gorm:"type:varchar(16);not null"`
	BirthDate     time.Time  `json:"birth_date" gorm:"type:date;not null"`
	HireDate      time.Time  `json:"hire_date" gorm:"type:date;not null"`
	FireDate      *time.Time `json:"fire_date" gorm:"type:date"`
	MoveDate      *time.Time `json:"move_date" gorm:"type:date"`
	SubdivisionID *int64     `json:"subdivision_id" gorm:"index"`
	Role          *string    `json:"role" gorm:"type:text"`
	PhoneNumber   string     `json:"phone_number" gorm:"type:text;not null"`
	Email         *string    `json:"email" gorm:"type:text"`
	PicturePath   *string    `json:"picture_path" gorm:"type:text"`
	IsFired       bool       `json:"is_fired" gorm:"not null;default:false"`
	Version       int64      `json:"version" gorm:"not null;default:1"`

	Subdivision *Subdivision `json:"-" gorm:"foreignKey:SubdivisionID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Worker) TableName() string {
	return "workers"
}

// Code возвращает табельный номер работника
func (w Worker) Code() string {
	return FormatCode(w.ID)
}

// Fire увольняет работника на указанную дату
func (w *Worker) Fire(on time.Time) {
	day := Today(on)
	w.IsFired = true
	w.FireDate = &day
}

// Transfer переводит работника в другое подразделение.
// Сохраняется только дата последнего перевода.
func (w *Worker) Transfer(subdivisionID int64, on time.Time) {
	day := Today(on)
	w.SubdivisionID = &subdivisionID
	w.MoveDate = &day
}

// FormatCode дополняет идентификатор нулями до четырёх знаков
func FormatCode(id int64) string {
	return fmt.Sprintf("%04d", id)
}

// Today отбрасывает время суток, оставляя календарную дату в UTC
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате DateLayout
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// Period - закрытый интервал дат [Start, End]
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет попадание даты в интервал включительно
func (p Period) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	day := Today(*t)
	return !day.Before(p.Start) && !day.After(p.End)
}

// Clock возвращает текущее время
type Clock func() time.Time
