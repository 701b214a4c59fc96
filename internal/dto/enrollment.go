package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// EnrollmentDraft hydrates the enrollment form: student profile with the
// composed address, guardian prefill, and the course pricing bounds the
// billing widget needs.
type EnrollmentDraft struct {
	Student EnrollmentStudent `json:"student"`
	Curso   EnrollmentCurso   `json:"curso"`
}

// EnrollmentStudent is the student slice of the enrollment draft.
type EnrollmentStudent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	CPF          string           `json:"cpf"`
	Email        string           `json:"email"`
	BirthDate    *time.Time       `json:"birth_date"`
	SchoolID     *string          `json:"school_id"`
	Address      string           `json:"address"`
	Phone        string           `json:"phone"`
	CellPhone    string           `json:"cell_phone"`
	Profession   string           `json:"profession"`
	MaritalState string           `json:"marital_state"`
	HasGuardian  bool             `json:"has_guardian"`
	Guardian     EnrollmentParent `json:"guardian"`
	Type         models.UserType  `json:"type"`
}

// EnrollmentParent is the guardian prefill of the enrollment draft.
type EnrollmentParent struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

// EnrollmentCurso is the course slice of the enrollment draft.
type EnrollmentCurso struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	MaxInstallments int             `json:"max_installments"`
}
