// Package session はサインイン状態とフラッシュメッセージを扱うセッション層を提供します。
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
)

// CookieName はセッションクッキーの名前です。
const CookieName = "cms_session"

const (
	keyUser       = "user"
	keyIssuedAt   = "issued_at"
	keyLastActive = "last_activity"
)

// フラッシュメッセージの種類
const (
	FlashSuccess = "success"
	FlashFailure = "failure"
)

// ストアの種類
const (
	StoreCookie = "cookie"
	StoreMemory = "memory"
)

// StoreOptions はセッションストアの設定です。
type StoreOptions struct {
	Kind   string // cookie または memory
	Secret []byte // 署名鍵
	Secure bool   // HTTPS のみでクッキーを送る
	MaxAge time.Duration
}

// NewStore は設定に応じたセッションストアを作成します。
// cookie は署名付きクッキーに全データを保持し、memory はサーバー側のメモリに保持します。
func NewStore(opts StoreOptions) (sessions.Store, error) {
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}

	var store sessions.Store
	switch opts.Kind {
	case StoreCookie, "":
		store = cookie.NewStore(opts.Secret)
	case StoreMemory:
		store = memstore.NewStore(opts.Secret)
	default:
		return nil, fmt.Errorf("unknown session store: %s", opts.Kind)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Middleware はリクエストにセッションを関連付けるミドルウェアを返します。
func Middleware(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(CookieName, store)
}

// Flashes は1回分の表示で取り出したフラッシュメッセージです。
type Flashes struct {
	Success []string
	Failure []string
}

// Empty はメッセージが1件もない場合に true を返します。
func (f Flashes) Empty() bool {
	return len(f.Success) == 0 && len(f.Failure) == 0
}

// Session は gin-contrib/sessions のセッションをこのアプリの語彙で包みます。
type Session struct {
	s sessions.Session
}

// From はリクエストに紐づくセッションを返します。Middleware の後でのみ使えます。
func From(c *gin.Context) *Session {
	return &Session{s: sessions.Default(c)}
}

// User はサインイン中のユーザー名を返します。
func (s *Session) User() (string, bool) {
	user, ok := s.s.Get(keyUser).(string)
	if !ok || user == "" {
		return "", false
	}
	return user, true
}

// SignIn はユーザーをサインイン状態にします。
func (s *Session) SignIn(user string, now time.Time) {
	s.s.Set(keyUser, user)
	s.s.Set(keyIssuedAt, now.Unix())
	s.s.Set(keyLastActive, now.Unix())
}

// SignOut はサインイン情報を削除します。フラッシュメッセージは残します。
func (s *Session) SignOut() {
	s.s.Delete(keyUser)
	s.s.Delete(keyIssuedAt)
	s.s.Delete(keyLastActive)
}

// Touch は最終操作時刻を更新します。
func (s *Session) Touch(now time.Time) {
	s.s.Set(keyLastActive, now.Unix())
}

// IssuedAt はサインイン時刻を返します。未設定の場合はゼロ値です。
func (s *Session) IssuedAt() time.Time {
	return readUnix(s.s.Get(keyIssuedAt))
}

// LastActivity は最終操作時刻を返します。未設定の場合はゼロ値です。
func (s *Session) LastActivity() time.Time {
	return readUnix(s.s.Get(keyLastActive))
}

// AddFlash は次に描画されるページで1度だけ表示するメッセージを追加します。
func (s *Session) AddFlash(kind, message string) {
	s.s.AddFlash(message, kind)
}

// PopFlashes はフラッシュメッセージを取り出し、セッションから削除します。
// 削除を確定させるには Save が必要です。
func (s *Session) PopFlashes() Flashes {
	return Flashes{
		Success: toStrings(s.s.Flashes(FlashSuccess)),
		Failure: toStrings(s.s.Flashes(FlashFailure)),
	}
}

// Save はセッションを保存します。レスポンスボディを書き込む前に呼ぶ必要があります。
func (s *Session) Save() error {
	return s.s.Save()
}

func toStrings(values []interface{}) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
