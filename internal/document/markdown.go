package document

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer は Markdown を HTML に変換します。
// goldmark.Markdown は並行利用できるため1インスタンスを共有します。
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer は GFM 拡張を有効にした Renderer を作成します。
// 見出しIDの自動付与は行わず、生HTMLはエスケープされます。
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render は Markdown ソースを HTML に変換します。
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}
