package domain

import "time"

// Account represents a registered user identity.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// PublicAccount is the subset of Account fields safe to return to clients.
type PublicAccount struct {
	ID    string
	Name  string
	Email string
}

// Public strips credential material from the account.
func (a Account) Public() PublicAccount {
	return PublicAccount{ID: a.ID, Name: a.Name, Email: a.Email}
}
