package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/file-cms/internal/document"
	"github.com/yourusername/file-cms/internal/session"
	"github.com/yourusername/file-cms/internal/storage"
)

func (h *Handler) home(c *gin.Context) {
	files, err := h.docs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplHome, page{Files: files})
}

func (h *Handler) newDocumentForm(c *gin.Context) {
	h.render(c, http.StatusOK, tmplNew, newDocumentPage(""))
}

func (h *Handler) createDocument(c *gin.Context) {
	raw := c.PostForm("newfile")
	name, err := document.ValidateName(raw)
	if err != nil {
		h.renderValidationFailure(c, tmplNew, newDocumentPage(raw), err)
		return
	}

	if err := h.docs.Create(c.Request.Context(), name); err != nil {
		if errors.Is(err, storage.ErrExists) {
			h.renderFailure(c, http.StatusUnprocessableEntity, tmplNew, newDocumentPage(raw), alreadyExists(name))
			return
		}
		h.fail(c, err)
		return
	}

	h.redirect(c, "/home", session.FlashSuccess, fmt.Sprintf("%s has been created", name))
}

func (h *Handler) showDocument(c *gin.Context) {
	name := c.Param("file")
	content, err := h.docs.Read(c.Request.Context(), name)
	if err != nil {
		h.handleDocumentErr(c, name, err)
		return
	}

	switch document.KindOf(name) {
	case document.KindPlainText:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
	case document.KindMarkdown:
		html, err := h.markdown.Render(content)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.render(c, http.StatusOK, tmplDocument, page{Title: name, File: name, HTML: template.HTML(html)})
	default:
		// 表示方法が決まっていない種別は変換せずダウンロードさせる
		mtype := mimetype.Detect(content)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", name, url.PathEscape(name)))
		c.Header("X-Content-Type-Options", "nosniff")
		c.Data(http.StatusOK, mtype.String(), content)
	}
}

func (h *Handler) editDocumentForm(c *gin.Context) {
	name := c.Param("file")
	content, err := h.docs.Read(c.Request.Context(), name)
	if err != nil {
		h.handleDocumentErr(c, name, err)
		return
	}
	h.render(c, http.StatusOK, tmplEdit, page{Title: "Edit " + name, File: name, Content: string(content)})
}

func (h *Handler) updateDocument(c *gin.Context) {
	name := c.Param("file")
	exists, err := h.docs.Exists(name)
	if err != nil {
		h.handleDocumentErr(c, name, err)
		return
	}
	// 存在しない場合は新規作成と同じ規則で名前を検証する
	if !exists {
		if _, err := document.ValidateName(name); err != nil {
			h.redirect(c, "/home", session.FlashFailure, err.Error())
			return
		}
	}

	if err := h.docs.Write(c.Request.Context(), name, []byte(c.PostForm("content"))); err != nil {
		h.handleDocumentErr(c, name, err)
		return
	}
	h.redirect(c, "/home", session.FlashSuccess, fmt.Sprintf("%s has been updated", name))
}

func (h *Handler) deleteDocument(c *gin.Context) {
	name := c.Param("file")
	if err := h.docs.Delete(c.Request.Context(), name); err != nil {
		h.handleDocumentErr(c, name, err)
		return
	}
	h.redirect(c, "/home", session.FlashSuccess, fmt.Sprintf("%s has been deleted", name))
}

func (h *Handler) duplicateDocumentForm(c *gin.Context) {
	name := c.Param("file")
	exists, err := h.docs.Exists(name)
	if err != nil || !exists {
		h.handleDocumentErr(c, name, notFoundIfNil(name, err))
		return
	}
	h.render(c, http.StatusOK, tmplDuplicate, duplicatePage(name, suggestCopyName(name)))
}

func (h *Handler) duplicateDocument(c *gin.Context) {
	src := c.Param("file")
	exists, err := h.docs.Exists(src)
	if err != nil || !exists {
		h.handleDocumentErr(c, src, notFoundIfNil(src, err))
		return
	}

	raw := c.PostForm("newfilename")
	dst, err := document.ValidateName(raw)
	if err != nil {
		h.renderValidationFailure(c, tmplDuplicate, duplicatePage(src, raw), err)
		return
	}

	if err := h.docs.Copy(c.Request.Context(), src, dst); err != nil {
		if errors.Is(err, storage.ErrExists) {
			h.renderFailure(c, http.StatusUnprocessableEntity, tmplDuplicate, duplicatePage(src, raw), alreadyExists(dst))
			return
		}
		h.handleDocumentErr(c, src, err)
		return
	}

	h.redirect(c, "/home", session.FlashSuccess, fmt.Sprintf("%s has been duplicated as %s", src, dst))
}

// handleDocumentErr は存在しない（または不正な名前の）ドキュメントをホームへのリダイレクトに、
// それ以外のエラーを 500 に変換します。
func (h *Handler) handleDocumentErr(c *gin.Context, name string, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		h.redirect(c, "/home", session.FlashFailure, fmt.Sprintf("%s does not exist", name))
		return
	}
	h.fail(c, err)
}

func (h *Handler) renderValidationFailure(c *gin.Context, name string, p page, err error) {
	var vErr *document.ValidationError
	if !errors.As(err, &vErr) {
		h.fail(c, err)
		return
	}
	h.renderFailure(c, http.StatusUnprocessableEntity, name, p, vErr.Message)
}

func newDocumentPage(name string) page {
	return page{Title: "New Document", NewName: name, Extensions: document.AcceptedExtensions}
}

func duplicatePage(src, newName string) page {
	return page{Title: "Duplicate " + src, File: src, NewName: newName}
}

func alreadyExists(name string) string {
	return fmt.Sprintf("%s already exists", name)
}

func notFoundIfNil(name string, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
}

// suggestCopyName は複製フォームの初期値を返します（about.md -> about-copy.md）。
func suggestCopyName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-copy" + ext
}
