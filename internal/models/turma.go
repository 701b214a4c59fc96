package models

import "time"

// Turma is a class/cohort taught by one teacher on a weekly schedule.
type Turma struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CursoID   string    `db:"curso_id" json:"curso_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	Weekday   string    `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TurmaDetail enriches Turma with course and teacher names.
type TurmaDetail struct {
	Turma
	CursoName   string `db:"curso_name" json:"curso_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SchoolName  string `db:"school_name" json:"school_name"`
}

// TurmaFilter encapsulates search parameters for listing classes.
type TurmaFilter struct {
	SchoolID  string
	CursoID   string
	TeacherID string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
