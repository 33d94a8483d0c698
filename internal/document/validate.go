package document

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// 検証エラーのメッセージ（画面にそのまま表示される）
const (
	MsgNameRequired     = "A name is required"
	MsgNameLength       = "A name between 1 and 100 characters is required"
	MsgExtensionInvalid = "This file extension is not accepted"
	MsgNameInvalid      = "This file name is not valid"
)

const maxNameLength = 100

// AcceptedExtensions は新規作成を許可する拡張子の一覧です。
var AcceptedExtensions = []string{".txt", ".md", ".doc", ".yaml", ".xml", ".docx"}

// ValidationError はファイル名検証に失敗したことを表します。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// 先頭から順に評価し、最初に失敗したルールのメッセージを返す
var nameRules = []validation.Rule{
	validation.Required.Error(MsgNameRequired),
	validation.RuneLength(1, maxNameLength).Error(MsgNameLength),
	validation.By(acceptedExtension),
	validation.By(singlePathElement),
}

// ValidateName は新規作成・複製先のファイル名を検証し、前後の空白を除いた名前を返します。
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := validation.Validate(trimmed, nameRules...); err != nil {
		return "", &ValidationError{Message: err.Error()}
	}
	return trimmed, nil
}

// IsAcceptedExtension は拡張子が作成可能な一覧に含まれるかを返します。
func IsAcceptedExtension(name string) bool {
	return slices.Contains(AcceptedExtensions, filepath.Ext(name))
}

// IsSafeName はファイル名がディレクトリを含まない単一の要素であるかを返します。
func IsSafeName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

func acceptedExtension(value any) error {
	name, _ := value.(string)
	if !IsAcceptedExtension(name) {
		return errors.New(MsgExtensionInvalid)
	}
	return nil
}

func singlePathElement(value any) error {
	name, _ := value.(string)
	if !IsSafeName(name) {
		return errors.New(MsgNameInvalid)
	}
	return nil
}
