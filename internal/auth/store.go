// Package auth keeps the list of registered users and the active session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

const (
	usersKey       = "users"
	currentUserKey = "currentUser"

	minUsernameLen = 4
	minPasswordLen = 6

	seedUsername = "admin"
	seedPassword = "admin123"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a stored account. Password holds a bcrypt hash.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Users struct {
	// mu serializes writes to the user list and the session.
	mu sync.Mutex

	store kv.Store
	log   *zap.Logger

	// HashCost overrides bcrypt.DefaultCost when positive.
	HashCost int
}

func NewUsers(store kv.Store, log *zap.Logger) *Users {
	if log == nil {
		log = zap.NewNop()
	}
	return &Users{store: store, log: log}
}

// Init seeds the default administrator and an empty session when missing.
func (u *Users) Init(ctx context.Context) error {
	_, found, err := u.store.Get(ctx, usersKey)
	if err != nil {
		return fmt.Errorf("read users: %w", err)
	}
	if !found {
		admin, err := u.newUser(seedUsername, seedPassword)
		if err != nil {
			return err
		}
		if err := u.save(ctx, []User{admin}); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	_, found, err = u.store.Get(ctx, currentUserKey)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !found {
		if err := u.store.Set(ctx, currentUserKey, ""); err != nil {
			return fmt.Errorf("seed session: %w", err)
		}
	}
	return nil
}

func (u *Users) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" || password == "" {
		return kit.NewValidationError("username", "username and password are required")
	}
	if utf8.RuneCountInString(username) < minUsernameLen {
		return kit.NewValidationError("username", fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return kit.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	users, err := u.read(ctx)
	if err != nil {
		u.log.Error("register user aborted", zap.Error(err), zap.String("username", username))
		return err
	}
	if _, ok := lookup(users, username); ok {
		return ErrUserExists
	}

	user, err := u.newUser(username, password)
	if err != nil {
		return err
	}
	if err := u.save(ctx, append(users, user)); err != nil {
		u.log.Error("register user failed", zap.Error(err), zap.String("username", username))
		return err
	}
	return nil
}

// Verify checks credentials without touching the session. An unreadable user
// list is reported as an error, not as bad credentials.
func (u *Users) Verify(ctx context.Context, username, password string) (User, error) {
	users, err := u.read(ctx)
	if err != nil {
		return User{}, err
	}
	user, ok := lookup(users, strings.TrimSpace(username))
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if !passwordMatches(user.Password, strings.TrimSpace(password)) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies the credentials and makes the stored username the current
// session user.
func (u *Users) Login(ctx context.Context, username, password string) (User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, err := u.Verify(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	if err := u.store.Set(ctx, currentUserKey, user.Username); err != nil {
		u.log.Error("persist session failed", zap.Error(err), zap.String("username", user.Username))
		return User{}, fmt.Errorf("persist session: %w", err)
	}
	return user, nil
}

func (u *Users) Logout(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.store.Set(ctx, currentUserKey, ""); err != nil {
		u.log.Error("clear session failed", zap.Error(err))
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the session user, or "" when nobody is logged in or the
// session cannot be read.
func (u *Users) CurrentUser(ctx context.Context) string {
	v, _, err := u.store.Get(ctx, currentUserKey)
	if err != nil {
		u.log.Warn("read session failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(v)
}

// List returns the registered usernames.
func (u *Users) List(ctx context.Context) []string {
	users := u.load(ctx)
	out := make([]string, 0, len(users))
	for _, user := range users {
		out = append(out, user.Username)
	}
	return out
}

func (u *Users) newUser(username, password string) (User, error) {
	cost := bcrypt.DefaultCost
	if u.HashCost > 0 {
		cost = u.HashCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return User{Username: username, Password: string(hash)}, nil
}

func (u *Users) load(ctx context.Context) []User {
	users, err := u.read(ctx)
	if err != nil {
		u.log.Warn("users unreadable, treating as empty", zap.Error(err))
		return []User{}
	}
	return users
}

func (u *Users) read(ctx context.Context) ([]User, error) {
	raw, found, err := u.store.Get(ctx, usersKey)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []User{}, nil
	}

	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (u *Users) save(ctx context.Context, users []User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return u.store.Set(ctx, usersKey, string(raw))
}

func lookup(users []User, username string) (User, bool) {
	if username == "" {
		return User{}, false
	}
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			return user, true
		}
	}
	return User{}, false
}

// passwordMatches also accepts plain-text passwords written by older clients.
func passwordMatches(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && stored == password
}
