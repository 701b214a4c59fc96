package models

import "time"

// Escola is a school unit; every other entity is scoped to one.
type Escola struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CNPJ      string    `db:"cnpj" json:"cnpj"`
	City      string    `db:"city" json:"city"`
	Street    string    `db:"street" json:"street"`
	Number    string    `db:"number" json:"number"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EscolaFilter encapsulates search parameters for listing schools.
type EscolaFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
