package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// pruneInterval controls how often expired sessions are swept.
const pruneInterval = 24 * time.Hour

type session struct {
	userID  int64
	expires time.Time
}

// Sessions is an in-memory session store. Tokens are random uuids; the
// cookie value carries an HMAC of the token so a tampered cookie is
// rejected before the map lookup.
type Sessions struct {
	ttl    time.Duration
	secret []byte
	log    logx.Logger

	mu      sync.Mutex
	byToken map[string]session

	stopOnce sync.Once
	done     chan struct{}
}

func NewSessions(secret string, ttl time.Duration, log logx.Logger) *Sessions {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sessions{
		ttl:     ttl,
		secret:  []byte(secret),
		log:     log.With(logx.String("svc", "sessions")),
		byToken: make(map[string]session),
		done:    make(chan struct{}),
	}
}

// Start launches the periodic sweep of expired sessions.
func (s *Sessions) Start() {
	go func() {
		t := time.NewTicker(pruneInterval)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.prune(time.Now())
			}
		}
	}()
}

func (s *Sessions) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Create opens a session for the user and returns the signed cookie value.
func (s *Sessions) Create(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = session{userID: userID, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return s.sign(token)
}

// Resolve maps a cookie value back to a user id. Expired sessions are
// removed on sight.
func (s *Sessions) Resolve(cookie string) (int64, bool) {
	token, ok := s.verify(cookie)
	if !ok {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byToken[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(sess.expires) {
		delete(s.byToken, token)
		return 0, false
	}
	return sess.userID, true
}

// Destroy ends the session for a cookie value. Unknown or tampered values
// are ignored.
func (s *Sessions) Destroy(cookie string) {
	token, ok := s.verify(cookie)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// TTL reports the configured session lifetime.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Len reports how many sessions are live.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byToken)
}

func (s *Sessions) prune(now time.Time) {
	s.mu.Lock()
	removed := 0
	for token, sess := range s.byToken {
		if now.After(sess.expires) {
			delete(s.byToken, token)
			removed++
		}
	}
	remaining := len(s.byToken)
	s.mu.Unlock()
	if removed > 0 {
		s.log.Debug("pruned expired sessions", logx.Int("removed", removed), logx.Int("live", remaining))
	}
}

func (s *Sessions) sign(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return token + "." + hex.EncodeToString(mac.Sum(nil))
}

func (s *Sessions) verify(cookie string) (string, bool) {
	token, sig, ok := strings.Cut(cookie, ".")
	if !ok {
		return "", false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return token, true
}
