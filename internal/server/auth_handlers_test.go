package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureMailer records outgoing reset mail instead of dialing SMTP.
type captureMailer struct {
	to       string
	resetURL string
}

func (m *captureMailer) SendPasswordReset(to, resetURL string) error {
	m.to = to
	m.resetURL = resetURL
	return nil
}

func setupAuthTestServer(t *testing.T) (*Server, *fiber.App, *captureMailer) {
	t.Helper()
	s, app, _ := setupHandlerTestServer(t)

	mr := miniredis.RunT(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = s.redis.Close() })

	mailer := &captureMailer{}
	s.mailer = mailer
	return s, app, mailer
}

func TestRegisterAndLoginFlow(t *testing.T) {
	_, app, _ := setupAuthTestServer(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		fiber.Map{"username": "ben", "email": "ben@ben.com", "password": "bens-password"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "ben@ben.com", registered.User.Email, "you see your own email")

	// Duplicate registration conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		fiber.Map{"username": "ben", "email": "ben@ben.com", "password": "bens-password"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login works by username and by email.
	for _, who := range []string{"ben", "ben@ben.com"} {
		resp, raw = doJSON(t, app, http.MethodPost, "/api/auth/login", "",
			fiber.Map{"usernameOrEmail": who, "password": "bens-password"})
		require.Equal(t, http.StatusOK, resp.StatusCode, "login as %q", who)
	}

	// Wrong password does not.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		fiber.Map{"usernameOrEmail": "ben", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The issued token authenticates /api/me.
	resp, raw = doJSON(t, app, http.MethodGet, "/api/me", "Bearer "+registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, "ben", me.Username)
	assert.Equal(t, "ben@ben.com", me.Email)
}

func TestRegisterValidationFields(t *testing.T) {
	_, app, _ := setupAuthTestServer(t)

	tests := []struct {
		name     string
		body     fiber.Map
		expected string
	}{
		{
			name:     "Bad email",
			body:     fiber.Map{"username": "ben", "email": "nope", "password": "bens-password"},
			expected: "email",
		},
		{
			name:     "Short username",
			body:     fiber.Map{"username": "bo", "email": "ben@ben.com", "password": "bens-password"},
			expected: "username",
		},
		{
			name:     "Username with at sign",
			body:     fiber.Map{"username": "ben@home", "email": "ben@ben.com", "password": "bens-password"},
			expected: "username",
		},
		{
			name:     "Short password",
			body:     fiber.Map{"username": "ben", "email": "ben@ben.com", "password": "abc"},
			expected: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/register", "", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body struct {
				Fields []struct {
					Field string `json:"field"`
				} `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(raw, &body))
			require.Len(t, body.Fields, 1)
			assert.Equal(t, tt.expected, body.Fields[0].Field)
		})
	}
}

func TestForgotPasswordFlow(t *testing.T) {
	_, app, mailer := setupAuthTestServer(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		fiber.Map{"username": "ben", "email": "ben@ben.com", "password": "old-password"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unknown emails get the same answer and no mail.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/forgot-password", "",
		fiber.Map{"email": "ghost@ben.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, mailer.to)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/forgot-password", "",
		fiber.Map{"email": "ben@ben.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ben@ben.com", mailer.to)
	require.NotEmpty(t, mailer.resetURL)

	parts := strings.Split(mailer.resetURL, "/")
	resetToken := parts[len(parts)-1]

	// A bogus token is rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/change-password", "",
		fiber.Map{"token": "bogus", "newPassword": "new-password"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The mailed token resets the password and signs the user in.
	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/change-password", "",
		fiber.Map{"token": resetToken, "newPassword": "new-password"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var changed struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &changed))
	assert.NotEmpty(t, changed.Token)

	// The token is single-use.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/change-password", "",
		fiber.Map{"token": resetToken, "newPassword": "another-password"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Old password no longer works, the new one does.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		fiber.Map{"usernameOrEmail": "ben", "password": "old-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		fiber.Map{"usernameOrEmail": "ben", "password": "new-password"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	_, app, _ := setupAuthTestServer(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		fiber.Map{"username": "ben", "email": "ben@ben.com", "password": "bens-password"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &registered))
	bearer := "Bearer " + registered.Token

	resp, _ = doJSON(t, app, http.MethodGet, "/api/me", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/me", bearer, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
