// Package credential はパスワードおよびセッショントークンの一方向ハッシュを提供する。
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLength はDigestが返す16進文字列の長さ。
const DigestLength = sha256.Size * 2

// Digest は秘密値のSHA-256ダイジェストを小文字16進文字列で返す。
// 入力が同じであれば常に同じ値を返す。
func Digest(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:])
}

// DigestString は文字列版のDigest。
func DigestString(secret string) string {
	return Digest([]byte(secret))
}

// Equal は2つのダイジェストを定数時間で比較する。
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
