package models

import "time"

// Resumo is a lesson summary for a class session on a given date. A class may
// have more than one summary per date.
type Resumo struct {
	ID        string    `db:"id" json:"id"`
	TurmaID   string    `db:"turma_id" json:"turma_id"`
	Date      time.Time `db:"date" json:"date"`
	Text      string    `db:"text" json:"text"`
	Link      *string   `db:"link" json:"link,omitempty"`
	VideoLink *string   `db:"video_link" json:"video_link,omitempty"`
	FilePath  *string   `db:"file_path" json:"file_path,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ResumoGroup bundles the summaries of one calendar date for display. The
// date label uses the pt-BR day/month/year format.
type ResumoGroup struct {
	Date    string   `json:"date"`
	Resumos []Resumo `json:"resumos"`
}
