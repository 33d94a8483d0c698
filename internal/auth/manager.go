package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/file-cms/internal/session"
)

// SignInPath はサインインページのパスです。
const SignInPath = "/users/signin"

// MsgSignInRequired は未サインインで保護されたページにアクセスした際のメッセージです。
const MsgSignInRequired = "You must be signed in to do that."

// ContextUserKey は、ハンドラー間でログイン済みユーザー名を共有するためのキーです。
const ContextUserKey = "auth.user"

var (
	maxSessionLifetime = 12 * time.Hour
	idleTimeout        = 30 * time.Minute
	loginWindow        = 15 * time.Minute
	lockDuration       = 10 * time.Minute
	maxLoginAttempts   = 5
)

// ErrInvalidCredentials はユーザー名またはパスワードが一致しないことを表します。
var ErrInvalidCredentials = errors.New("invalid credentials")

// ThrottledError はログイン試行回数の上限に達したことを表します。
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %s", e.RetryAfter.Round(time.Second))
}

// SessionMaxAge はクッキーの MaxAge に利用する期間を返します。
func SessionMaxAge() time.Duration {
	return maxSessionLifetime
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	creds    *Credentials
	verifier PasswordVerifier
	log      *zap.Logger
	now      func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewManager は認証マネージャーを作成します。
func NewManager(creds *Credentials, verifier PasswordVerifier, log *zap.Logger) *Manager {
	if creds == nil {
		creds = NewCredentials(nil)
	}
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		creds:    creds,
		verifier: verifier,
		log:      log,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// Authenticate は資格情報を検証します。
// 失敗時は ErrInvalidCredentials、試行回数超過時は *ThrottledError を返します。
func (m *Manager) Authenticate(ip, username, password string) error {
	if retryAfter := m.checkLock(ip); retryAfter > 0 {
		return &ThrottledError{RetryAfter: retryAfter}
	}

	hash, ok := m.creds.Hash(username)
	if !ok || !m.verifier.Verify(password, hash) {
		remaining := m.recordFailure(ip)
		m.log.Info("sign in failed",
			zap.String("username", username),
			zap.String("ip", ip),
			zap.Int("remaining_attempts", remaining),
		)
		return ErrInvalidCredentials
	}

	m.resetAttempts(ip)
	return nil
}

// CurrentUser は有効なセッションのユーザー名を返します。
// 有効期限切れやアイドルタイムアウトの場合はサインインしていないものとして扱います。
func (m *Manager) CurrentUser(s *session.Session) (string, bool) {
	user, ok := s.User()
	if !ok {
		return "", false
	}

	now := m.now()
	issuedAt := s.IssuedAt()
	if issuedAt.IsZero() || now.Sub(issuedAt) > maxSessionLifetime {
		return "", false
	}
	lastActive := s.LastActivity()
	if lastActive.IsZero() || now.Sub(lastActive) > idleTimeout {
		return "", false
	}
	return user, true
}

// SignIn はセッションにユーザーを記録します。保存は呼び出し側で行います。
func (m *Manager) SignIn(s *session.Session, username string) {
	s.SignIn(username, m.now())
}

// SetClock は現在時刻の取得方法を差し替えます。
func (m *Manager) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
}

// TrackActivity はサインイン中のリクエストで最終操作時刻を更新するミドルウェアを返します。
func (m *Manager) TrackActivity() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)
		if _, ok := m.CurrentUser(s); ok {
			s.Touch(m.now())
			if err := s.Save(); err != nil {
				m.log.Error("failed to save session", zap.Error(err))
			}
		}
		c.Next()
	}
}

// RequireLogin はサインインを必須にするミドルウェアを返します。
// 未サインインの場合はフラッシュメッセージを設定してサインインページへリダイレクトし、
// 以降のハンドラーは実行しません。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)
		user, ok := m.CurrentUser(s)
		if !ok {
			s.SignOut()
			s.AddFlash(session.FlashFailure, MsgSignInRequired)
			if err := s.Save(); err != nil {
				m.log.Error("failed to save session", zap.Error(err))
			}
			c.Redirect(http.StatusFound, SignInPath)
			c.Abort()
			return
		}

		s.Touch(m.now())
		if err := s.Save(); err != nil {
			m.log.Error("failed to save session", zap.Error(err))
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func (m *Manager) checkLock(ip string) time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[ip]
	if !ok {
		return 0
	}
	now := m.now()
	if now.After(state.lockedUntil) {
		// ロック期間が明けたら試行回数を数え直す
		if !state.lockedUntil.IsZero() {
			delete(m.attempts, ip)
		}
		return 0
	}
	return state.lockedUntil.Sub(now)
}

func (m *Manager) recordFailure(ip string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	state, ok := m.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > loginWindow {
		state = &attemptState{firstAttempt: now}
		m.attempts[ip] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m *Manager) resetAttempts(ip string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, ip)
}
