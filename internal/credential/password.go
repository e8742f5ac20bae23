package credential

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// HasherSHA256 はセッショントークンと同じダイジェストでパスワードを保存する方式。
	HasherSHA256 = "sha256"
	// HasherBcrypt はbcryptでパスワードを保存する方式。
	HasherBcrypt = "bcrypt"

	// MaxBcryptPasswordBytes はbcryptが受け付けるパスワードの最大バイト数。
	MaxBcryptPasswordBytes = 72
)

// ErrPasswordTooLong はパスワードがハッシュ方式の上限長を超えていることを表す。
var ErrPasswordTooLong = errors.New("password exceeds hasher length limit")

// PasswordHasher はパスワードの保存用ハッシュ生成と照合を行うインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードから保存用の文字列を生成する。
	Hash(password string) (string, error)
	// Verify は平文パスワードが保存済みハッシュと一致するかを返す。
	// 不一致はエラーではなくfalseで返す。
	Verify(hash, password string) (bool, error)
}

// DigestPasswordHasher はDigestをそのままパスワードハッシュとして使う。
type DigestPasswordHasher struct{}

// Hash はパスワードのSHA-256ダイジェストを返す。
func (DigestPasswordHasher) Hash(password string) (string, error) {
	return DigestString(password), nil
}

// Verify はダイジェストを定数時間で比較する。
func (DigestPasswordHasher) Verify(hash, password string) (bool, error) {
	return Equal(hash, DigestString(password)), nil
}

// BcryptPasswordHasher はbcryptによるパスワードハッシュ。
type BcryptPasswordHasher struct {
	Cost int
}

// Hash はbcryptハッシュを生成する。Costが0の場合はbcrypt.DefaultCostを使う。
// MaxBcryptPasswordBytesを超えるパスワードはErrPasswordTooLongを返す。
func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxBcryptPasswordBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrPasswordTooLong, len(password), MaxBcryptPasswordBytes)
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify はbcryptハッシュとパスワードを照合する。
func (h BcryptPasswordHasher) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}

// NewPasswordHasher は名前に対応するPasswordHasherを返す。
// 空文字列はHasherSHA256として扱う。
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch name {
	case "", HasherSHA256:
		return DigestPasswordHasher{}, nil
	case HasherBcrypt:
		return BcryptPasswordHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher: %q", name)
	}
}

// compile-time interface check
var (
	_ PasswordHasher = DigestPasswordHasher{}
	_ PasswordHasher = BcryptPasswordHasher{}
)
