package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPlainPassword(t *testing.T) {
	c := New("dev", "")
	assert.True(t, c.Valid("dev"))
	assert.False(t, c.Valid("Dev"))
	assert.False(t, c.Valid(""))
}

func TestHashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3gredo"), bcrypt.MinCost)
	require.NoError(t, err)

	c := New("dev", string(hash))
	assert.True(t, c.Valid("s3gredo"))
	assert.False(t, c.Valid("dev"), "the plain password is ignored once a hash is set")
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("abc")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abc")))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(New("dev", "").Middleware())
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	cases := []struct {
		name   string
		header string
		target string
		want   int
	}{
		{name: "missing", target: "/api/ping", want: fiber.StatusUnauthorized},
		{name: "wrong", header: "nope", target: "/api/ping", want: fiber.StatusUnauthorized},
		{name: "header", header: "dev", target: "/api/ping", want: fiber.StatusOK},
		{name: "query", target: "/api/ping?token=dev", want: fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			if tc.header != "" {
				req.Header.Set(HeaderToken, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
