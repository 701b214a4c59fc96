package models

import "time"

// Audio is a distributed course audio file scoped to a school or class.
type Audio struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	TurmaID   *string   `db:"turma_id" json:"turma_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	FilePath  string    `db:"file_path" json:"file_path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Material is downloadable course material (apostilas, exercises, slides).
type Material struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	TurmaID   *string   `db:"turma_id" json:"turma_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	FilePath  string    `db:"file_path" json:"file_path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ArquivoFilter scopes audio/material listings.
type ArquivoFilter struct {
	SchoolID string
	TurmaID  string
	Search   string
	Page     int
	PageSize int
}
