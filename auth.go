package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	jwtSecretKey     = "jwt_secret"
)

// Account errors. Their text is shown to the player.
var (
	ErrBadUsername        = fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	ErrBadPassword        = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginRateLimited   = errors.New("too many login attempts, try again later")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInternal           = errors.New("internal error")
)

// Auth handles accounts and session tokens
type Auth struct {
	db        *DB
	log       *zap.SugaredLogger
	jwtSecret []byte
	now       func() time.Time
	cost      int // bcrypt work factor

	// login attempts per IP
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth. An empty secret loads or creates one in the settings table.
func NewAuth(db *DB, secret string, log *zap.SugaredLogger) *Auth {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &Auth{
		db:      db,
		log:     log,
		now:     time.Now,
		cost:    bcryptCost,
		rateMap: make(map[string]*rateEntry),
	}
	if secret != "" {
		a.jwtSecret = []byte(secret)
	} else {
		a.jwtSecret = a.loadOrCreateSecret()
	}
	return a
}

func (a *Auth) loadOrCreateSecret() []byte {
	if h := a.db.GetSetting(jwtSecretKey); h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if err := a.db.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
		a.log.Warnw("could not persist JWT secret", "err", err)
	}
	return secret
}

// Register creates a new account and returns its id and a session token
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", ErrBadUsername
	}
	if len(password) < minPasswordLen {
		return 0, "", ErrBadPassword
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		a.log.Errorw("username lookup failed", "err", err)
		return 0, "", ErrInternal
	}
	if exists {
		return 0, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return 0, "", ErrInternal
	}
	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		a.log.Errorw("create account failed", "username", username, "err", err)
		return 0, "", ErrInternal
	}
	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", ErrInternal
	}
	return id, token, nil
}

// Login checks credentials and returns the account id and a session token
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.checkRate(ip) {
		return 0, "", ErrLoginRateLimited
	}

	player, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if err != nil {
		a.log.Errorw("account lookup failed", "err", err)
		return 0, "", ErrInternal
	}
	if player == nil || player.PassHash == "" {
		return 0, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)); err != nil {
		return 0, "", ErrInvalidCredentials
	}

	token, err := a.generateToken(player.ID, player.Username)
	if err != nil {
		return 0, "", ErrInternal
	}
	return player.ID, token, nil
}

// ValidateToken returns the account id and username a token was issued for
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	pid, ok := claims["pid"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	return int64(pid), username, nil
}

func (a *Auth) generateToken(playerID int64, username string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"pid": playerID,
		"usr": username,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := a.now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
