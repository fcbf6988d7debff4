package jwtPkg

import (
	"KYCCapture/internal/entity"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	userLocalsKey     = "user"
)

var (
	ErrMissingHeader  = errors.New("empty Authorization header")
	ErrInvalidFormat  = errors.New("invalid Authorization format")
	ErrSecretNotSet   = errors.New("JWT secret not configured")
	ErrMissingClaims  = errors.New("token claims are missing required fields")
	ErrUnexpectedAlgo = errors.New("unexpected signing method")
)

// Sign issues an HS256 token. Capture clients normally receive tokens from the
// upstream KYC backend; Sign exists for tooling and tests sharing the secret.
func Sign(data map[string]interface{}, expiresIn time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(expiresIn).Unix()

	secret := os.Getenv(AccessTokenSecret)
	if secret == "" {
		return "", 0, ErrSecretNotSet
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt

	for k, v := range data {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, ErrMissingHeader
	}

	accessToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidFormat
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		logrus.WithField("env", secretEnvKey).Error("JWT secret environment variable not set")
		return nil, ErrSecretNotSet
	}

	token, err := jwt.Parse(strings.TrimSpace(accessToken), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgo, token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// UserFromToken reads the identity claims every capture token must carry.
func UserFromToken(token *jwt.Token) (entity.UserLoginData, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	if id == "" || email == "" {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	return entity.UserLoginData{
		ID:       id,
		Email:    email,
		Username: username,
	}, nil
}

func SetUserLoginData(c *fiber.Ctx, user entity.UserLoginData) {
	c.Locals(userLocalsKey, user)
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	user, ok := c.Locals(userLocalsKey).(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
