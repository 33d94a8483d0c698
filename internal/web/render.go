package web

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/file-cms/internal/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// テンプレート名
const (
	tmplHome      = "home.tmpl"
	tmplSignIn    = "signin.tmpl"
	tmplNew       = "new.tmpl"
	tmplEdit      = "edit.tmpl"
	tmplDuplicate = "duplicate.tmpl"
	tmplDocument  = "document.tmpl"
	tmplError     = "error.tmpl"
)

// page は全テンプレートに渡す画面データです。
type page struct {
	Title   string
	User    string
	Flashes session.Flashes

	Files      []string
	File       string
	Content    string
	HTML       template.HTML
	Username   string
	NewName    string
	Extensions []string
}

// templateFuncs はテンプレートから利用する関数です。
// ドキュメント名を URL に埋め込む際は pathEscape を通します。
var templateFuncs = template.FuncMap{
	"pathEscape": url.PathEscape,
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
}

// render はフラッシュメッセージを取り出してからページを描画します。
// 取り出したメッセージはセッションから削除されます。
func (h *Handler) render(c *gin.Context, status int, name string, p page) {
	s := session.From(c)
	p.Flashes = s.PopFlashes()
	if user, ok := h.auth.CurrentUser(s); ok {
		p.User = user
	}
	if err := s.Save(); err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(status, name, p)
}

// renderFailure は失敗メッセージ付きでページを描画します（フォームの再表示用）。
func (h *Handler) renderFailure(c *gin.Context, status int, name string, p page, message string) {
	session.From(c).AddFlash(session.FlashFailure, message)
	h.render(c, status, name, p)
}

// redirect はフラッシュメッセージを設定してリダイレクトします。
func (h *Handler) redirect(c *gin.Context, location, kind, message string) {
	s := session.From(c)
	if message != "" {
		s.AddFlash(kind, message)
	}
	if err := s.Save(); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// fail は想定外のエラーを記録し、500 ページを返します。
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, tmplError, page{Title: "Error"})
	c.Abort()
}
