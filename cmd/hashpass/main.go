// Package main は users.yaml に記載する bcrypt ハッシュを生成するツールです。
//
// 使い方:
//
//	hashpass -user admin            # パスワードを標準入力から読む
//	echo secret | hashpass -user admin
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/file-cms/internal/auth"
)

func main() {
	user := flag.String("user", "", "ユーザー名（指定すると YAML の1行として出力）")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt のコスト")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *user, *cost); err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, user string, cost int) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("password is empty")
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}

	if user == "" {
		_, err = fmt.Fprintln(out, hash)
		return err
	}
	return yaml.NewEncoder(out).Encode(map[string]string{user: hash})
}
