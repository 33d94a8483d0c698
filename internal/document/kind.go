// Package document はドキュメントの種別判定・ファイル名検証・Markdown変換を提供します。
package document

import "path/filepath"

// Kind は拡張子から決まるドキュメントの表示種別です。
type Kind int

const (
	// KindUnsupported は表示方法が定義されていない種別です（.doc, .yaml, .xml, .docx など）。
	KindUnsupported Kind = iota
	// KindPlainText はそのままテキストとして返す種別です（.txt）。
	KindPlainText
	// KindMarkdown はHTMLに変換して表示する種別です（.md）。
	KindMarkdown
)

// KindOf はファイル名の拡張子から種別を判定します。
func KindOf(name string) Kind {
	switch filepath.Ext(name) {
	case ".txt":
		return KindPlainText
	case ".md":
		return KindMarkdown
	default:
		return KindUnsupported
	}
}

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain-text"
	case KindMarkdown:
		return "markdown"
	default:
		return "unsupported"
	}
}
