package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/rentflow-api/internal/models"
)

// UserDirectory serves accounts from a YAML file of bcrypt-hashed credentials:
//
//	users:
//	  - id: u-1
//	    email: manager@example.com
//	    passwordHash: $2a$10$...
//	    fullName: Site Manager
//	    role: MANAGER
//	    active: true
type UserDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

type userFile struct {
	Users []models.User `yaml:"users"`
}

// LoadUserDirectory parses the users file at path.
func LoadUserDirectory(path string) (*UserDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return ParseUserDirectory(raw)
}

// ParseUserDirectory builds a directory from YAML bytes, rejecting unknown roles and duplicate emails.
func ParseUserDirectory(raw []byte) (*UserDirectory, error) {
	var file userFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	dir := &UserDirectory{byEmail: make(map[string]models.User, len(file.Users))}
	for i, u := range file.Users {
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Email == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("users[%d]: email and passwordHash are required", i)
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		if _, dup := dir.byEmail[u.Email]; dup {
			return nil, fmt.Errorf("users[%d]: duplicate email %s", i, u.Email)
		}
		if u.ID == "" {
			u.ID = u.Email
		}
		dir.byEmail[u.Email] = u
	}
	return dir, nil
}

// FindByEmail returns sql.ErrNoRows when the email is unknown, matching UserRepository.
func (d *UserDirectory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// UpdateLastLogin records the login time in memory only.
func (d *UserDirectory) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for email, u := range d.byEmail {
		if u.ID == id {
			t := ts
			u.LastLogin = &t
			d.byEmail[email] = u
			return nil
		}
	}
	return nil
}
