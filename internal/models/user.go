package models

import (
	"strings"
	"time"
)

// UserType is the numeric role code gating feature visibility.
type UserType int

const (
	UserTypeGestor     UserType = 1
	UserTypeDiretor    UserType = 2
	UserTypeSecretaria UserType = 3
	UserTypeProfessor  UserType = 4
	UserTypeAluno      UserType = 5
)

// Valid returns true when the type is a supported role code.
func (t UserType) Valid() bool {
	return t >= UserTypeGestor && t <= UserTypeAluno
}

func (t UserType) String() string {
	switch t {
	case UserTypeGestor:
		return "Gestor"
	case UserTypeDiretor:
		return "Diretor"
	case UserTypeSecretaria:
		return "Secretária"
	case UserTypeProfessor:
		return "Professor"
	case UserTypeAluno:
		return "Aluno"
	default:
		return "Desconhecido"
	}
}

// User represents an application user. Students are users of type 5 and carry
// the full profile consumed by the enrollment form.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Type         UserType   `db:"type" json:"type"`
	SchoolID     *string    `db:"school_id" json:"school_id,omitempty"`
	CPF          string     `db:"cpf" json:"cpf"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Profession   string     `db:"profession" json:"profession"`
	MaritalState string     `db:"marital_state" json:"marital_state"`
	City         string     `db:"city" json:"city"`
	Street       string     `db:"street" json:"street"`
	Number       string     `db:"number" json:"number"`
	Phone        string     `db:"phone" json:"phone"`
	CellPhone    string     `db:"cell_phone" json:"cell_phone"`
	PhotoURL     *string    `db:"photo_url" json:"photo_url,omitempty"`
	ParentName   string     `db:"parent_name" json:"parent_name"`
	ParentCPF    string     `db:"parent_cpf" json:"parent_cpf"`
	ParentPhone  string     `db:"parent_phone" json:"parent_phone"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Address composes the display address used by the enrollment form.
func (u User) Address() string {
	parts := []string{u.City, u.Street, u.Number}
	if strings.TrimSpace(strings.Join(parts, "")) == "" {
		return ""
	}
	return strings.Join(parts, ", ")
}

// HasGuardianData reports whether any guardian field is filled in.
func (u User) HasGuardianData() bool {
	return u.ParentName != "" || u.ParentCPF != "" || u.ParentPhone != ""
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Type      *UserType
	SchoolID  string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
