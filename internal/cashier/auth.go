// Package cashier implements the staff side of the order flow: the
// hardcoded demo credential check and the locate/prepare/ready/deliver
// workflow on top of the order manager.
package cashier

import (
	"golang.org/x/crypto/bcrypt"
)

// Cashier is a logged-in staff member.
type Cashier struct {
	Username string
	Name     string
	Shift    string
}

type account struct {
	Cashier
	passwordHash []byte
}

type Auth struct {
	accounts []account
}

// NewAuth builds the fixed demo account set. Passwords are hashed at
// startup; this is a demo credential check, not an auth system.
func NewAuth() (*Auth, error) {
	seed := []struct {
		username, password, name, shift string
	}{
		{"cajero1", "oxxo123", "María González", "Mañana"},
		{"cajero2", "oxxo456", "Carlos Ruiz", "Tarde"},
		{"supervisor", "admin789", "Ana Supervisor", "Todo el día"},
	}

	a := &Auth{}
	for _, s := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		a.accounts = append(a.accounts, account{
			Cashier:      Cashier{Username: s.username, Name: s.name, Shift: s.shift},
			passwordHash: hash,
		})
	}
	return a, nil
}

// Login returns the matched cashier, or false on a wrong username or
// password.
func (a *Auth) Login(username, password string) (*Cashier, bool) {
	for _, acc := range a.accounts {
		if acc.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
			return nil, false
		}
		c := acc.Cashier
		return &c, true
	}
	return nil, false
}
