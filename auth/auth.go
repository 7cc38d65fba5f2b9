// auth/auth.go
package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// HeaderToken carries the shared password on every API request.
const HeaderToken = "X-Studio-Token"

// Checker validates the shared password, either against a bcrypt hash or,
// when no hash is configured, against the plain password.
type Checker struct {
	password string
	hash     []byte
}

func New(password, passwordHash string) *Checker {
	c := &Checker{password: password}
	if passwordHash != "" {
		c.hash = []byte(passwordHash)
	}
	return c
}

func (c *Checker) Valid(token string) bool {
	if token == "" {
		return false
	}
	if c.hash != nil {
		return bcrypt.CompareHashAndPassword(c.hash, []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.password)) == 1
}

// Middleware rejects requests without a valid token. EventSource clients
// cannot set headers, so the token is also read from the "token" query
// parameter.
func (c *Checker) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := ctx.Get(HeaderToken)
		if token == "" {
			token = ctx.Query("token")
		}
		if !c.Valid(token) {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		return ctx.Next()
	}
}

// HashPassword returns the bcrypt hash to put in STUDIO_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
