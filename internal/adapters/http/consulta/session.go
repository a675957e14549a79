package consulta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appconsulta "exemplo.com.br/creditos/internal/application/consulta"
	"exemplo.com.br/creditos/internal/infrastructure/cache"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
)

const sessionIssuer = "consulta-creditos"

// Session is the per-browser consultation state.
type Session struct {
	ID           string
	Form         *appconsulta.Form
	Orchestrator *appconsulta.Orchestrator
	Table        *appconsulta.Table
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// SessionStore keeps sessions in memory, keyed by the ID carried in a
// signed cookie. Idle sessions expire after the TTL.
type SessionStore struct {
	sessions   *cache.TTLCache[*Session]
	newSession func(id string) *Session
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *slog.Logger
	now        func() time.Time
}

// NewSessionStore creates a store; factory builds the state of a new session.
func NewSessionStore(cfg SessionConfig, factory func(id string) *Session, log *slog.Logger) *SessionStore {
	if cfg.CookieName == "" {
		cfg.CookieName = "consulta_sessao"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &SessionStore{
		sessions:   cache.NewTTLCache[*Session](cfg.TTL),
		newSession: factory,
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		log:        log,
		now:        time.Now,
	}
}

type sessionKey struct{}

// SessionFrom returns the session attached by Middleware.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Middleware attaches the caller's session, creating one (and its cookie)
// when the cookie is missing, invalid or points to an expired session.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, refresh := s.load(r)
		if refresh {
			if err := s.writeCookie(w, sess.ID); err != nil {
				s.log.Error("Failed to sign session cookie", "error", err)
			}
		}

		ctx := ctxutil.WithSessionID(r.Context(), sess.ID)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *SessionStore) load(r *http.Request) (*Session, bool) {
	if c, err := r.Cookie(s.cookieName); err == nil {
		claims, err := s.parseToken(c.Value)
		if err == nil {
			if sess, ok := s.sessions.Get(claims.ID); ok {
				remaining := claims.ExpiresAt.Time.Sub(s.now())
				return sess, remaining < s.ttl/2
			}
		} else {
			s.log.Debug("Discarding session cookie", "error", err)
		}
	}

	sess := s.newSession(uuid.NewString())
	s.sessions.Set(sess.ID, sess)
	s.log.Debug("Session created", "session_id", sess.ID)
	return sess, true
}

func (s *SessionStore) writeCookie(w http.ResponseWriter, id string) error {
	token, err := s.signToken(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionStore) signToken(id string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (s *SessionStore) parseToken(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("session token without id")
	}
	return claims, nil
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

// StartJanitor purges idle sessions every interval, cancelling whatever
// query they still had in flight.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	s.sessions.StartJanitor(ctx, interval, func(sess *Session) {
		sess.Orchestrator.Reset()
		s.log.Debug("Session expired", "session_id", sess.ID)
	})
}
