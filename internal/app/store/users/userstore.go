// internal/app/store/users/userstore.go
package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/curelo/landingcms/internal/app/system/authutil"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrUsersFile is returned when the users file cannot be read or parsed.
var ErrUsersFile = errors.New("users file unavailable")

// User is one entry of the users file.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Store reads operator accounts from a flat JSON file. The file is read on
// every call so edits take effect without a restart.
type Store struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

// New creates a Store reading path from fs.
func New(fs afero.Fs, path string, logger *zap.Logger) *Store {
	return &Store{fs: fs, path: path, logger: logger}
}

// All returns every user in the file.
func (s *Store) All() ([]User, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsersFile, err)
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsersFile, err)
	}
	return users, nil
}

// Find returns the user with the given username, or nil.
func (s *Store) Find(username string) (*User, error) {
	users, err := s.All()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Authenticate checks a username and password. Bcrypt hashes are verified
// with bcrypt; any other stored value is compared as plain text and a
// warning is logged.
func (s *Store) Authenticate(username, password string) (*User, error) {
	u, err := s.Find(username)
	if err != nil || u == nil {
		return nil, err
	}
	if IsBcryptHash(u.Password) {
		if !authutil.CheckPassword(password, u.Password) {
			return nil, nil
		}
		return u, nil
	}

	s.logger.Warn("users file holds a plain-text password; replace it with a bcrypt hash",
		zap.String("username", username))
	if u.Password == "" || u.Password != password {
		return nil, nil
	}
	return u, nil
}

// IsBcryptHash reports whether s looks like a bcrypt hash.
func IsBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
