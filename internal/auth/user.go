package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Permission is a bitmask over what a connection may do with the engine.
// The bits mirror the server's request surface: reads are selects, writes
// are every other statement, snapshots are the save/load actions.
type Permission uint8

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermSnapshot
)

const PermAll = PermRead | PermWrite | PermSnapshot

// Allows reports whether every bit of required is granted.
func (p Permission) Allows(required Permission) bool {
	return p&required == required
}

func (p Permission) String() string {
	if p == 0 {
		return "none"
	}
	parts := []string{}
	if p.Allows(PermRead) {
		parts = append(parts, "read")
	}
	if p.Allows(PermWrite) {
		parts = append(parts, "write")
	}
	if p.Allows(PermSnapshot) {
		parts = append(parts, "snapshot")
	}
	return strings.Join(parts, "+")
}

type User struct {
	Id    string
	Name  string
	Perms Permission

	password []byte
}

// NewUser hashes the password with bcrypt. bcrypt rejects inputs past its
// 72-byte limit; that surfaces here as an error rather than later at login.
func NewUser(name, password string, perms Permission) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{
		Id:       uuid.New().String(),
		Name:     name,
		Perms:    perms,
		password: hash,
	}, nil
}

func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.password, []byte(password)) == nil
}
