package models

import "time"

// ChamadaStatus represents the status for attendance records.
type ChamadaStatus string

const (
	ChamadaStatusPresente    ChamadaStatus = "PRESENTE"
	ChamadaStatusAusente     ChamadaStatus = "AUSENTE"
	ChamadaStatusJustificado ChamadaStatus = "JUSTIFICADO"
)

// Valid returns true when the status is a supported value.
func (s ChamadaStatus) Valid() bool {
	switch s {
	case ChamadaStatusPresente, ChamadaStatusAusente, ChamadaStatusJustificado:
		return true
	default:
		return false
	}
}

// Chamada is an attendance record for one student in one class session.
type Chamada struct {
	ID        string        `db:"id" json:"id"`
	TurmaID   string        `db:"turma_id" json:"turma_id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Date      time.Time     `db:"date" json:"date"`
	Time      string        `db:"time" json:"time"`
	Status    ChamadaStatus `db:"status" json:"status"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// ChamadaDetail extends the attendance row with student metadata.
type ChamadaDetail struct {
	Chamada
	StudentName string `db:"student_name" json:"student_name"`
	TurmaName   string `db:"turma_name" json:"turma_name"`
}

// ChamadaFilter defines query filters for attendance listings.
type ChamadaFilter struct {
	TurmaID   string
	StudentID string
	Status    *ChamadaStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
