package store

import (
	"errors"

	"github.com/nenelamp/cyberguard/internal/model"
)

var (
	// ErrNotFound means no credentials have been persisted.
	ErrNotFound = errors.New("no persisted credentials")

	// ErrCorrupted means persisted data exists but is partial or
	// unparseable. Callers fail closed: treat it as absent and Clear.
	ErrCorrupted = errors.New("persisted credentials corrupted")
)

// Store persists the credential pair across process restarts. The token and
// user are always written and cleared together; Load reports one without the
// other as ErrCorrupted.
type Store interface {
	Load() (token string, user *model.User, err error)
	Save(token string, user *model.User) error
	Clear() error
}
