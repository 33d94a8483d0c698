// Package web はルーティングと画面描画を担う HTTP 層を提供します。
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/file-cms/internal/auth"
	"github.com/yourusername/file-cms/internal/document"
	"github.com/yourusername/file-cms/internal/session"
)

// DocumentStore はハンドラーが利用するドキュメントストアです。
type DocumentStore interface {
	List(ctx context.Context) ([]string, error)
	Exists(name string) (bool, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Create(ctx context.Context, name string) error
	Write(ctx context.Context, name string, content []byte) error
	Delete(ctx context.Context, name string) error
	Copy(ctx context.Context, src, dst string) error
}

// Options はルーターの構築に必要な依存関係です。
type Options struct {
	Documents      DocumentStore
	Auth           *auth.Manager
	Sessions       sessions.Store
	Renderer       *document.Renderer
	Logger         *zap.Logger
	AllowedOrigins []string
	TrustedProxies []string // 空の場合は X-Forwarded-For を信頼しない
}

// Handler は各ルートのハンドラーをまとめた構造体です。
type Handler struct {
	docs     DocumentStore
	auth     *auth.Manager
	markdown *document.Renderer
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Documents == nil {
		return nil, errors.New("document store is nil")
	}
	if opts.Auth == nil {
		return nil, errors.New("auth manager is nil")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is nil")
	}
	if opts.Renderer == nil {
		opts.Renderer = document.NewRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), RequestLogger(opts.Logger))

	if len(opts.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost}
		router.Use(cors.New(corsConfig))
	}

	router.Use(session.Middleware(opts.Sessions), opts.Auth.TrackActivity())
	router.SetHTMLTemplate(tmpl)

	h := &Handler{
		docs:     opts.Documents,
		auth:     opts.Auth,
		markdown: opts.Renderer,
	}
	h.register(router)
	return router, nil
}

func (h *Handler) register(router *gin.Engine) {
	router.GET("/health", handleHealth)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, auth.SignInPath)
	})
	router.GET("/home", h.home)

	users := router.Group("/users")
	{
		users.GET("/signin", h.signInForm)
		users.POST("/signin", h.signIn)
		users.POST("/signout", h.signOut)
	}

	router.GET("/:file", h.showDocument)

	protected := router.Group("")
	protected.Use(h.auth.RequireLogin())
	{
		protected.GET("/new", h.newDocumentForm)
		protected.POST("/new", h.createDocument)
		protected.GET("/:file/edit", h.editDocumentForm)
		protected.POST("/:file", h.updateDocument)
		protected.POST("/:file/delete", h.deleteDocument)
		protected.GET("/:file/duplicate", h.duplicateDocumentForm)
		protected.POST("/:file/duplicate", h.duplicateDocument)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "file-cms",
	})
}
