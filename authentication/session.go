package authentication

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Tabitha-Home/THMS-CLIENT/shared"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// Credentials is the persisted session state. It lives in a mode 0600 json
// file so the bearer token survives client restarts, the same way the
// browser dashboard keeps it in local storage.
type Credentials struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName,omitempty"`
}

type Session struct {
	Config *shared.AppConfig `inject:""`
	Logger *shared.Logger    `inject:""`

	// OnUnauthorized is the navigation hook towards the login entry point.
	// It is invoked at most once per stored credential set, however many
	// concurrent calls fail with 401.
	OnUnauthorized func(loginUrl string)

	mutex               sync.Mutex
	creds               Credentials
	loaded              bool
	unauthorizedHandled bool
}

func (s *Session) Load() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loadLocked()
}

func (s *Session) loadLocked() error {
	if s.loaded {
		return nil
	}

	b, err := ioutil.ReadFile(s.Config.CredentialsFile)
	if os.IsNotExist(err) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read credentials file")
	}

	if err := json.Unmarshal(b, &s.creds); err != nil {
		return errors.Wrap(err, "failed to decode credentials file")
	}
	s.loaded = true
	return nil
}

func (s *Session) Save(creds Credentials) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Config.CredentialsFile), 0700); err != nil {
		return errors.Wrap(err, "failed to create credentials directory")
	}

	b, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "failed to encode credentials")
	}

	if err := ioutil.WriteFile(s.Config.CredentialsFile, b, 0600); err != nil {
		return errors.Wrap(err, "failed to write credentials file")
	}

	s.creds = creds
	s.loaded = true
	s.unauthorizedHandled = false
	return nil
}

func (s *Session) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.clearLocked()
}

func (s *Session) clearLocked() error {
	s.creds = Credentials{}
	s.loaded = true

	err := os.Remove(s.Config.CredentialsFile)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove credentials file")
	}
	return nil
}

// Token returns the stored bearer token, or an empty string when logged out.
func (s *Session) Token() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.loadLocked(); err != nil {
		s.Logger.Warn(context.Background(), "failed to load credentials", "error", err.Error())
		return ""
	}
	return s.creds.Token
}

func (s *Session) DisplayName() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.loadLocked(); err != nil {
		return ""
	}
	if s.creds.DisplayName != "" {
		return s.creds.DisplayName
	}

	// fall back to the token subject when login did not record a name
	claims := s.tokenClaimsLocked()
	if claims == nil {
		return ""
	}
	subject, _ := claims["sub"].(string)
	return subject
}

// ExpiresSoon reports whether the stored token expires within the given
// window. The token is parsed without signature verification, the client
// only inspects it for display and proactive re-login hints.
func (s *Session) ExpiresSoon(window time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	claims := s.tokenClaimsLocked()
	if claims == nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return time.Unix(int64(exp), 0).Before(time.Now().Add(window))
}

func (s *Session) tokenClaimsLocked() jwt.MapClaims {
	if err := s.loadLocked(); err != nil || s.creds.Token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.creds.Token, claims); err != nil {
		return nil
	}
	return claims
}

// HandleUnauthorized implements the global 401 policy: clear the stored
// credentials and send the user to the login entry point, exactly once even
// when several in-flight requests fail together. It reports whether this
// call performed the handling, so the caller can notify exactly once too.
func (s *Session) HandleUnauthorized(ctx context.Context) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.unauthorizedHandled {
		return false
	}
	s.unauthorizedHandled = true

	if err := s.clearLocked(); err != nil {
		s.Logger.Err(ctx, "failed to clear credentials", "error", err.Error())
	}

	s.Logger.Info(ctx, "session expired, redirecting to login", "loginUrl", s.Config.LoginUrl)
	if s.OnUnauthorized != nil {
		s.OnUnauthorized(s.Config.LoginUrl)
	}
	return true
}
