package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier は平文パスワードと保存済みハッシュを照合します。
type PasswordVerifier interface {
	Verify(password, hash string) bool
}

// BcryptVerifier は bcrypt による PasswordVerifier です。
type BcryptVerifier struct{}

// Verify はパスワードがハッシュと一致する場合に true を返します。
func (BcryptVerifier) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword は users.yaml に記載するための bcrypt ハッシュを生成します。
// cost が0以下の場合は bcrypt.DefaultCost を使います。
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
