package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"wabridge/internal/model"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Users holds registered credentials, keyed by username. State is kept in
// memory and mirrored to a JSON file so accounts survive restarts (live
// sessions do not).
type Users struct {
	mu        sync.RWMutex
	byName    map[string]model.User
	stateFile string
	persistMu sync.Mutex
}

type Options struct {
	StateFile string
}

func NewUsers() *Users {
	return NewUsersWithOptions(Options{})
}

func NewUsersWithOptions(opts Options) *Users {
	u := &Users{
		byName:    make(map[string]model.User),
		stateFile: opts.StateFile,
	}

	if u.stateFile != "" {
		if err := u.loadFromFile(u.stateFile); err != nil {
			log.Printf("users persistence: load failed (%s): %v", u.stateFile, err)
		}
	}

	return u
}

type persistedUsersFile struct {
	Version int          `json:"version"`
	Users   []model.User `json:"users"`
	SavedAt int64        `json:"savedAt"`
}

func (u *Users) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedUsersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported users state version")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range file.Users {
		if usr.Username == "" || usr.PasswordHash == "" {
			continue
		}
		u.byName[usr.Username] = usr
	}
	return nil
}

func (u *Users) snapshotLocked() []model.User {
	result := make([]model.User, 0, len(u.byName))
	for _, usr := range u.byName {
		result = append(result, usr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

func (u *Users) persistSnapshot(users []model.User) {
	path := u.stateFile
	if path == "" {
		return
	}

	u.persistMu.Lock()
	defer u.persistMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("users persistence: mkdir failed (%s): %v", dir, err)
		return
	}

	file := persistedUsersFile{Version: 1, Users: users, SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		log.Printf("users persistence: marshal failed: %v", err)
		return
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		log.Printf("users persistence: create temp failed: %v", err)
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: chmod temp failed: %v", err)
		return
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: write temp failed: %v", err)
		return
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: sync temp failed: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("users persistence: close temp failed: %v", err)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		log.Printf("users persistence: rename failed: %v", err)
		return
	}
}

// Create registers a new user. The password hash must already be computed
// by the caller.
func (u *Users) Create(username, passwordHash string, nowMillis int64) (model.User, error) {
	if username == "" {
		return model.User{}, errors.New("missing username")
	}
	if passwordHash == "" {
		return model.User{}, errors.New("missing password hash")
	}

	u.mu.Lock()

	if _, ok := u.byName[username]; ok {
		u.mu.Unlock()
		return model.User{}, ErrUserExists
	}

	usr := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    nowMillis,
	}
	u.byName[username] = usr

	var snapshot []model.User
	if u.stateFile != "" {
		snapshot = u.snapshotLocked()
	}
	u.mu.Unlock()

	if snapshot != nil {
		u.persistSnapshot(snapshot)
	}
	return usr, nil
}

// Get returns the user by username.
func (u *Users) Get(username string) (model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	usr, ok := u.byName[username]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return usr, nil
}
