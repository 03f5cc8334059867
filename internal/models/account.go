package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered user of the site. PasswordHash is never
// serialized; clients only ever see the AccountView.
type Account struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessAt time.Time `json:"-"`
}

// AccountView is the subset of Account fields safe to return to a client.
type AccountView struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}
