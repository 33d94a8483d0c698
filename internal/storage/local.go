// Package storage はドキュメントを保存するファイルシステム層を提供します。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yourusername/file-cms/internal/document"
)

var (
	// ErrNotFound はドキュメントが存在しないことを表します。
	ErrNotFound = errors.New("document not found")
	// ErrExists は同名のドキュメントが既に存在することを表します。
	ErrExists = errors.New("document already exists")
	// ErrInvalidName はファイル名がディレクトリ外を指す可能性があることを表します。
	ErrInvalidName = errors.New("invalid document name")
)

const filePerm = 0o640

// Local は1つのディレクトリをドキュメントストアとして扱います。
// ファイル名がそのままドキュメントの識別子になります。
type Local struct {
	root   string
	locker Locker
}

// NewLocal はディレクトリを作成（存在しない場合）して Local を返します。
// locker が nil の場合はプロセス内ロックを使います。
func NewLocal(root string, locker Locker) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Local{root: abs, locker: locker}, nil
}

// Root はストアのディレクトリを返します。
func (s *Local) Root() string {
	return s.root
}

// List はドキュメント名を昇順で返します。ディレクトリと隠しファイルは含みません。
func (s *Local) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !document.IsSafeName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Exists はドキュメントが存在するかを返します。
func (s *Local) Exists(name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Read はドキュメントの内容を読み込みます。
func (s *Local) Read(ctx context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, translateErr(name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Create は空のドキュメントを作成します。既に存在する場合は ErrExists を返します。
func (s *Local) Create(ctx context.Context, name string) (err error) {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return translateErr(name, err)
	}
	return file.Close()
}

// Write はドキュメントの内容を上書きします。存在しない場合は作成します。
func (s *Local) Write(ctx context.Context, name string, content []byte) (err error) {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", name, closeErr)
		}
	}()

	if _, err := file.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Delete はドキュメントを削除します。
func (s *Local) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil {
		return translateErr(name, err)
	}
	return nil
}

// Copy は src の内容を新しいドキュメント dst に複製します。
// dst が既に存在する場合は ErrExists を返します。
func (s *Local) Copy(ctx context.Context, src, dst string) (err error) {
	srcPath, err := s.path(src)
	if err != nil {
		return err
	}
	dstPath, err := s.path(dst)
	if err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("%s: %w", dst, ErrExists)
	}

	// デッドロックを避けるため常に名前順でロックする
	first, second := src, dst
	if second < first {
		first, second = second, first
	}
	unlockFirst, err := s.locker.Lock(ctx, first)
	if err != nil {
		return err
	}
	defer unlockFirst()
	unlockSecond, err := s.locker.Lock(ctx, second)
	if err != nil {
		return err
	}
	defer unlockSecond()

	in, err := os.Open(srcPath)
	if err != nil {
		return translateErr(src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return translateErr(dst, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
		if err != nil {
			_ = os.Remove(dstPath)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func (s *Local) path(name string) (string, error) {
	if !document.IsSafeName(name) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(s.root, name), nil
}

func translateErr(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s: %w", name, ErrExists)
	default:
		return err
	}
}
