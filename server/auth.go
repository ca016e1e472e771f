package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	passExpiry       = 7 * 24 * time.Hour
	passIssuer       = "space-invasion"
	minPasswordLen   = 4
	minCallsignLen   = 2
	maxCallsignLen   = maxNameLen
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	maxTrackedIPs    = 4096
)

// bcryptCost is a var so tests can use bcrypt.MinCost
var bcryptCost = 12

var (
	ErrBadCredentials = errors.New("invalid callsign or password")
	ErrTooManyLogins  = errors.New("too many login attempts, try again later")
	ErrCallsignTaken  = errors.New("callsign already taken")
	ErrInvalidPass    = errors.New("invalid pilot pass")
)

// PilotClaims is the signed pilot pass handed to a signed-in client. It
// carries the hangar state a join needs, so a reconnecting pilot flies
// the preset they last picked without another database round trip.
type PilotClaims struct {
	PlayerID int64  `json:"pid"`
	Callsign string `json:"usr"`
	Loadout  string `json:"ldt"`
	Level    int    `json:"lvl"`
	jwt.RegisteredClaims
}

// Auth issues and checks pilot passes
type Auth struct {
	db      *DB
	secret  []byte
	limiter *loginLimiter
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:      db,
		secret:  loadOrCreateSecret(db),
		limiter: newLoginLimiter(loginRateWindow, maxLoginAttempts),
	}
}

// loadOrCreateSecret reuses the signing key kept in settings, creating
// and storing one on first start
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate pass secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist pass secret: %v", err)
		}
	}
	return secret
}

// validCallsign accepts letters, digits, '-' and '_'
func validCallsign(s string) bool {
	if len(s) < minCallsignLen || len(s) > maxCallsignLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Register enlists a new pilot flying the default loadout and returns
// their first pass
func (a *Auth) Register(callsign, password string) (*PilotClaims, string, error) {
	callsign = strings.TrimSpace(callsign)
	if !validCallsign(callsign) {
		return nil, "", fmt.Errorf("callsign must be %d-%d letters, digits, - or _", minCallsignLen, maxCallsignLen)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	taken, err := a.db.UsernameExists(callsign)
	if err != nil {
		return nil, "", fmt.Errorf("check callsign: %w", err)
	}
	if taken {
		return nil, "", ErrCallsignTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreatePlayer(callsign, string(hash))
	if err != nil {
		return nil, "", fmt.Errorf("create pilot: %w", err)
	}
	return a.Issue(id)
}

// Login checks a password and returns a fresh pass
func (a *Auth) Login(callsign, password, ip string) (*PilotClaims, string, error) {
	if !a.limiter.Allow(ip, time.Now()) {
		return nil, "", ErrTooManyLogins
	}

	row, err := a.db.GetPlayerByUsername(strings.TrimSpace(callsign))
	if err != nil {
		return nil, "", fmt.Errorf("look up pilot: %w", err)
	}
	if row == nil || row.PassHash == "" {
		return nil, "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PassHash), []byte(password)); err != nil {
		return nil, "", ErrBadCredentials
	}
	return a.Issue(row.ID)
}

// Issue signs a pass from the pilot's stored callsign, preferred loadout
// and level
func (a *Auth) Issue(playerID int64) (*PilotClaims, string, error) {
	row, err := a.db.GetPlayerByID(playerID)
	if err != nil {
		return nil, "", fmt.Errorf("look up pilot: %w", err)
	}
	if row == nil {
		return nil, "", ErrBadCredentials
	}

	claims := &PilotClaims{
		PlayerID: row.ID,
		Callsign: row.Username,
		Loadout:  row.Loadout,
		Level:    1,
	}
	if _, err := GetLoadout(claims.Loadout); err != nil {
		claims.Loadout = DefaultLoadout
	}
	if stats, err := a.db.GetStats(playerID); err == nil && stats != nil {
		claims.Level = stats.Level
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    passIssuer,
		Subject:   strconv.FormatInt(row.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(passExpiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign pass: %w", err)
	}
	return claims, token, nil
}

// ValidateToken checks a pass and returns its claims
func (a *Auth) ValidateToken(token string) (*PilotClaims, error) {
	claims := &PilotClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(passIssuer))
	if err != nil || !parsed.Valid || claims.PlayerID == 0 {
		return nil, ErrInvalidPass
	}
	if _, err := GetLoadout(claims.Loadout); err != nil {
		claims.Loadout = DefaultLoadout
	}
	return claims, nil
}

// SaveLoadout stores the pilot's preferred preset and reissues their pass
// so the next join picks it up
func (a *Auth) SaveLoadout(playerID int64, name string) (*PilotClaims, string, error) {
	if _, err := GetLoadout(name); err != nil {
		return nil, "", err
	}
	if err := a.db.SetPreferredLoadout(playerID, name); err != nil {
		return nil, "", fmt.Errorf("save loadout: %w", err)
	}
	return a.Issue(playerID)
}

// loginLimiter caps password attempts per address within a window
type loginLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	seen   map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

func newLoginLimiter(window time.Duration, max int) *loginLimiter {
	return &loginLimiter{window: window, max: max, seen: make(map[string]*rateEntry)}
}

// Allow counts an attempt from ip and reports whether it may proceed
func (l *loginLimiter) Allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.seen) >= maxTrackedIPs {
		for k, e := range l.seen {
			if now.After(e.ResetAt) {
				delete(l.seen, k)
			}
		}
	}

	e, ok := l.seen[ip]
	if !ok || now.After(e.ResetAt) {
		l.seen[ip] = &rateEntry{Count: 1, ResetAt: now.Add(l.window)}
		return true
	}
	e.Count++
	return e.Count <= l.max
}
