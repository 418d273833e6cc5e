// Package session keeps track of who is signed in to the local ledger.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/lib/jwt"
	"github.com/IlyasAtabaev731/khata/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmailInUse      = errors.New("email already in use")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrMissingField    = errors.New("name, email and password are required")
)

type UserStorage interface {
	SaveUser(ctx context.Context, name, email string, passHash []byte) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

type Options struct {
	CachePath string
	Secret    string
	TTL       time.Duration
}

// cacheFile is the on-disk form of a session.
type cacheFile struct {
	Token string `yaml:"token"`
}

// Gate owns the current session. The session is set by Register, Login and
// Load and dropped by Clear; nothing else changes it.
type Gate struct {
	storage UserStorage
	logger  *slog.Logger
	opts    Options

	mu      sync.RWMutex
	current *models.SessionUser
}

func NewGate(storage UserStorage, logger *slog.Logger, opts Options) *Gate {
	return &Gate{
		storage: storage,
		logger:  logger,
		opts:    opts,
	}
}

func (g *Gate) Register(ctx context.Context, name, email, password string) (*models.SessionUser, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingField
	}

	g.logger.Info("Register new user", slog.String("email", email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		g.logger.Error("Failed to hash password", "error", err)
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := g.storage.SaveUser(ctx, name, email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrEmailInUse
		}
		g.logger.Error("Failed to save user", "error", err)
		return nil, fmt.Errorf("saving user: %w", err)
	}

	return g.start(user)
}

func (g *Gate) Login(ctx context.Context, email, password string) (*models.SessionUser, error) {
	user, err := g.storage.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return g.start(user)
}

// Load restores the session from the cache file. A missing, unreadable,
// expired or orphaned cache yields a nil user and no error; anything but a
// missing file is also removed.
func (g *Gate) Load(ctx context.Context) (*models.SessionUser, error) {
	data, err := os.ReadFile(g.opts.CachePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.set(nil)
			return nil, nil
		}
		return nil, fmt.Errorf("reading session cache: %w", err)
	}

	var cache cacheFile
	if err := yaml.Unmarshal(data, &cache); err != nil || cache.Token == "" {
		g.logger.Warn("Discarding unreadable session cache", slog.String("path", g.opts.CachePath))
		return nil, g.Clear()
	}

	claimed, err := jwt.ParseToken(cache.Token, g.opts.Secret)
	if err != nil {
		g.logger.Info("Session expired or invalid", "error", err)
		return nil, g.Clear()
	}

	user, err := g.storage.UserByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.logger.Info("Session user no longer exists", slog.Int64("uid", claimed.ID))
			return nil, g.Clear()
		}
		return nil, fmt.Errorf("looking up session user: %w", err)
	}

	current := user.SessionUser()
	g.set(current)
	return current, nil
}

// Current returns the signed-in user or nil.
func (g *Gate) Current() *models.SessionUser {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Clear signs out and removes the cache file.
func (g *Gate) Clear() error {
	g.set(nil)
	if err := os.Remove(g.opts.CachePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session cache: %w", err)
	}
	return nil
}

func (g *Gate) start(user *models.User) (*models.SessionUser, error) {
	current := user.SessionUser()

	token, err := jwt.NewToken(current, g.opts.Secret, g.opts.TTL)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	if err := g.persist(token); err != nil {
		return nil, err
	}

	g.set(current)
	return current, nil
}

func (g *Gate) persist(token string) error {
	data, err := yaml.Marshal(cacheFile{Token: token})
	if err != nil {
		return fmt.Errorf("encoding session cache: %w", err)
	}

	if dir := filepath.Dir(g.opts.CachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating session cache dir: %w", err)
		}
	}

	if err := os.WriteFile(g.opts.CachePath, data, 0o600); err != nil {
		return fmt.Errorf("writing session cache: %w", err)
	}
	return nil
}

func (g *Gate) set(user *models.SessionUser) {
	g.mu.Lock()
	g.current = user
	g.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
