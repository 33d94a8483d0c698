package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/file-cms/internal/auth"
	"github.com/yourusername/file-cms/internal/session"
)

const (
	msgWelcome         = "Welcome!"
	msgInvalidLogin    = "Invalid credentials"
	msgTooManyAttempts = "Too many failed attempts. Try again later."
	msgSignedOut       = "You have been signed out."
)

func (h *Handler) signInForm(c *gin.Context) {
	if _, ok := h.auth.CurrentUser(session.From(c)); ok {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	h.render(c, http.StatusOK, tmplSignIn, page{Title: "Sign In"})
}

func (h *Handler) signIn(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	form := page{Title: "Sign In", Username: username}

	err := h.auth.Authenticate(c.ClientIP(), username, password)
	var throttled *auth.ThrottledError
	switch {
	case err == nil:
	case errors.As(err, &throttled):
		c.Header("Retry-After", strconv.FormatInt(int64(throttled.RetryAfter.Seconds()), 10))
		h.renderFailure(c, http.StatusTooManyRequests, tmplSignIn, form, msgTooManyAttempts)
		return
	default:
		h.renderFailure(c, http.StatusUnprocessableEntity, tmplSignIn, form, msgInvalidLogin)
		return
	}

	s := session.From(c)
	h.auth.SignIn(s, username)
	h.redirect(c, "/home", session.FlashSuccess, msgWelcome)
}

func (h *Handler) signOut(c *gin.Context) {
	session.From(c).SignOut()
	h.redirect(c, auth.SignInPath, session.FlashSuccess, msgSignedOut)
}
