package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/file-cms/internal/auth"
	"github.com/yourusername/file-cms/internal/session"
	"github.com/yourusername/file-cms/internal/storage"
)

const (
	testUser     = "admin"
	testPassword = "secret"
)

// testApp はクッキーを保持しながらルーターにリクエストを送るテスト用クライアントです。
type testApp struct {
	t       *testing.T
	router  *gin.Engine
	auth    *auth.Manager
	dataDir string
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithStore(t, session.StoreCookie)
}

// newTestAppWithStore は指定したセッションストアでテスト用アプリを組み立てます。
func newTestAppWithStore(t *testing.T, kind string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := filepath.Join(t.TempDir(), "data")
	docs, err := storage.NewLocal(dataDir, nil)
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	manager := auth.NewManager(auth.NewCredentials(map[string]string{testUser: hash}), auth.BcryptVerifier{}, nil)

	store, err := session.NewStore(session.StoreOptions{
		Kind:   kind,
		Secret: []byte("test-session-secret"),
		MaxAge: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	router, err := NewRouter(Options{Documents: docs, Auth: manager, Sessions: store})
	if err != nil {
		t.Fatalf("NewRouter returned error: %v", err)
	}

	return &testApp{t: t, router: router, auth: manager, dataDir: dataDir, cookies: map[string]*http.Cookie{}}
}

func (a *testApp) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.doWithHeader(method, path, form, nil)
}

func (a *testApp) doWithHeader(method, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(a.cookies, ck.Name)
			continue
		}
		a.cookies[ck.Name] = ck
	}
	return rec
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, path, nil)
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return a.do(http.MethodPost, path, form)
}

func (a *testApp) signIn() {
	a.t.Helper()
	rec := a.post("/users/signin", url.Values{"username": {testUser}, "password": {testPassword}})
	if rec.Code != http.StatusFound {
		a.t.Fatalf("sign in failed: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func (a *testApp) createDocument(name, content string) {
	a.t.Helper()
	if err := os.WriteFile(filepath.Join(a.dataDir, name), []byte(content), 0o640); err != nil {
		a.t.Fatalf("failed to create %s: %v", name, err)
	}
}

func (a *testApp) readDocument(name string) (string, bool) {
	a.t.Helper()
	data, err := os.ReadFile(filepath.Join(a.dataDir, name))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body=%s)", rec.Code, want, rec.Body.String())
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, rec, http.StatusFound)
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Fatalf("expected body to contain %q, got:\n%s", want, body)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Fatalf("expected body not to contain %q, got:\n%s", unwanted, body)
	}
}

// testClock は手動で進める時計です。
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (a *testApp) useClock(start time.Time) *testClock {
	clock := &testClock{now: start}
	a.auth.SetClock(clock.Now)
	return clock
}
