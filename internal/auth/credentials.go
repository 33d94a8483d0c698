// Package auth は認証・認可機能を提供します。
package auth

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credentials はユーザー名から bcrypt ハッシュを引く読み取り専用のストアです。
type Credentials struct {
	users map[string]string
}

// NewCredentials は与えられたマップのコピーから Credentials を作成します。
func NewCredentials(users map[string]string) *Credentials {
	copied := make(map[string]string, len(users))
	for name, hash := range users {
		copied[name] = hash
	}
	return &Credentials{users: copied}
}

// LoadCredentials は "ユーザー名: ハッシュ" 形式の YAML ファイルを読み込みます。
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return ParseCredentials(data)
}

// ParseCredentials は YAML を解析して Credentials を作成します。
func ParseCredentials(data []byte) (*Credentials, error) {
	var users map[string]string
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	for name, hash := range users {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("credentials contain an empty username")
		}
		if strings.TrimSpace(hash) == "" {
			return nil, fmt.Errorf("credentials for %q have no password hash", name)
		}
	}
	return NewCredentials(users), nil
}

// Hash はユーザーのパスワードハッシュを返します。
func (c *Credentials) Hash(username string) (string, bool) {
	hash, ok := c.users[username]
	return hash, ok
}

// Len は登録ユーザー数を返します。
func (c *Credentials) Len() int {
	return len(c.users)
}
