package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatriculaStatus represents the lifecycle of an enrollment.
type MatriculaStatus string

// Possible enrollment statuses. There is no transition back to ATIVA.
const (
	MatriculaStatusAtiva     MatriculaStatus = "ATIVA"
	MatriculaStatusCancelada MatriculaStatus = "CANCELADA"
	MatriculaStatusTrancada  MatriculaStatus = "TRANCADA"
	MatriculaStatusConcluida MatriculaStatus = "CONCLUIDA"
)

// Valid returns true when the status is a supported value.
func (s MatriculaStatus) Valid() bool {
	switch s {
	case MatriculaStatusAtiva, MatriculaStatusCancelada, MatriculaStatusTrancada, MatriculaStatusConcluida:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the status change is allowed.
func (s MatriculaStatus) CanTransitionTo(target MatriculaStatus) bool {
	if !target.Valid() || s == target {
		return false
	}
	return s == MatriculaStatusAtiva
}

// BillingType selects between an installment plan and flat monthly billing.
type BillingType string

const (
	BillingParcelado BillingType = "PARCELADO"
	BillingMensal    BillingType = "MENSAL"
)

// Valid returns true when the billing type is supported.
func (b BillingType) Valid() bool {
	return b == BillingParcelado || b == BillingMensal
}

// Matricula links a student to a school/course with a billing plan.
type Matricula struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	SchoolID          string           `db:"school_id" json:"school_id"`
	CursoID           string           `db:"curso_id" json:"curso_id"`
	TurmaID           *string          `db:"turma_id" json:"turma_id,omitempty"`
	Price             decimal.Decimal  `db:"price" json:"price"`
	BillingType       BillingType      `db:"billing_type" json:"billing_type"`
	InstallmentCount  int              `db:"installment_count" json:"installment_count"`
	InstallmentAmount *decimal.Decimal `db:"installment_amount" json:"installment_amount,omitempty"`
	FirstPaymentDate  time.Time        `db:"first_payment_date" json:"first_payment_date"`
	Level             string           `db:"level" json:"level"`
	Schedule          string           `db:"schedule" json:"schedule"`
	Status            MatriculaStatus  `db:"status" json:"status"`
	HasGuardian       bool             `db:"has_guardian" json:"has_guardian"`
	HasExtraData      bool             `db:"has_extra_data" json:"has_extra_data"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// MatriculaDetail enriches Matricula with student, school and course info.
type MatriculaDetail struct {
	Matricula
	StudentName string `db:"student_name" json:"student_name"`
	SchoolName  string `db:"school_name" json:"school_name"`
	CursoName   string `db:"curso_name" json:"curso_name"`
}

// MatriculaFilter provides filters for listing enrollments.
type MatriculaFilter struct {
	StudentID string
	SchoolID  string
	CursoID   string
	Status    MatriculaStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ParcelaStatus is the persisted status of an installment. The overdue label
// ("Vencido") is a derived view state and is never written to storage.
type ParcelaStatus string

const (
	ParcelaStatusPago    ParcelaStatus = "Pago"
	ParcelaStatusAVencer ParcelaStatus = "à vencer"
	ParcelaStatusVencido ParcelaStatus = "Vencido"
)

// Persistable reports whether the status may be stored.
func (s ParcelaStatus) Persistable() bool {
	return s == ParcelaStatusPago || s == ParcelaStatusAVencer
}

// Normalize collapses the derived overdue label back to the stored "due"
// value; unknown values pass through and fail Persistable.
func (s ParcelaStatus) Normalize() ParcelaStatus {
	if s == ParcelaStatusVencido {
		return ParcelaStatusAVencer
	}
	return s
}

// Parcela is one scheduled payment within an enrollment's billing plan.
type Parcela struct {
	ID          string          `db:"id" json:"id"`
	MatriculaID string          `db:"matricula_id" json:"matricula_id"`
	Ordinal     int             `db:"ordinal" json:"ordinal"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	DueDate     time.Time       `db:"due_date" json:"due_date"`
	Status      ParcelaStatus   `db:"status" json:"status"`
	PaidAt      *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ParcelaDetail joins a parcela with enrollment and student context for the
// financial ledger view.
type ParcelaDetail struct {
	Parcela
	StudentName string `db:"student_name" json:"student_name"`
	SchoolID    string `db:"school_id" json:"school_id"`
	CursoName   string `db:"curso_name" json:"curso_name"`
}

// ParcelaFilter scopes ledger queries.
type ParcelaFilter struct {
	MatriculaID string
	SchoolID    string
	Status      ParcelaStatus
	DueFrom     *time.Time
	DueTo       *time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
