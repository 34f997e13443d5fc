package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads INSTAGRAM_USERNAME and INSTAGRAM_PASSWORD.
// It is read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. A non-empty username must
// match INSTAGRAM_USERNAME.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUser := os.Getenv("INSTAGRAM_USERNAME")
	envPass := os.Getenv("INSTAGRAM_PASSWORD")
	if envUser == "" || envPass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != envUser {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     envUser,
		Password:     envPass,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
