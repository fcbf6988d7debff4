package bcrypt

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const handoffCodeDigits = 6

// IBcrypt hashes the short handoff codes a second device uses to join a
// capture session.
type IBcrypt interface {
	GenerateHandoffCode() (code string, hash string, err error)
	Hash(code string) (string, error)
	Compare(hash string, code string) error
}

type bcryptService struct {
	cost int
}

func New() IBcrypt {
	return &bcryptService{
		cost: bcrypt.DefaultCost,
	}
}

func NewWithCost(cost int) IBcrypt {
	return &bcryptService{
		cost: cost,
	}
}

func (b *bcryptService) GenerateHandoffCode() (string, string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate handoff code: %w", err)
	}

	code := fmt.Sprintf("%0*d", handoffCodeDigits, n.Int64())
	hash, err := b.Hash(code)
	if err != nil {
		return "", "", err
	}

	return code, hash, nil
}

func (b *bcryptService) Hash(code string) (string, error) {
	result, err := bcrypt.GenerateFromPassword([]byte(code), b.cost)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func (b *bcryptService) Compare(hash string, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}
