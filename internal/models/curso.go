package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Curso is a course offering with the price used by the billing computation.
type Curso struct {
	ID              string          `db:"id" json:"id"`
	SchoolID        string          `db:"school_id" json:"school_id"`
	Name            string          `db:"name" json:"name"`
	Language        string          `db:"language" json:"language"`
	Price           decimal.Decimal `db:"price" json:"price"`
	MaxInstallments int             `db:"max_installments" json:"max_installments"`
	Active          bool            `db:"active" json:"active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CursoFilter encapsulates search parameters for listing courses.
type CursoFilter struct {
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
