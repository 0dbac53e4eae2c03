package server

import (
	"fmt"
	"strconv"
	"time"

	"updoot/internal/middleware"
	"updoot/internal/models"
	"updoot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// forgotPasswordKey prefixes the Redis key holding a one-time reset token.
const forgotPasswordKey = "forget-password:"

// resetTokenTTL is how long a password reset link stays valid.
const resetTokenTTL = 24 * time.Hour

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.Context(), req)
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			status := fiber.StatusBadRequest
			if appErr.Code == "CONFLICT" {
				status = fiber.StatusConflict
			}
			return models.RespondWithError(c, status, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user.Sanitized(user.ID),
	})
}

// Login handles POST /api/auth/login. The account may be identified by
// username or by email.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Login(c.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "UNAUTHORIZED" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Sanitized(user.ID),
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token's JTI
// until the token would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	tokenString := ""
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenString = authHeader[7:]
	}
	if tokenString == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && s.redis != nil {
		jti, _ := claims["jti"].(string)
		if jti != "" {
			ttl := resetTokenTTL
			if exp, expOk := claims["exp"].(float64); expOk {
				if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
					ttl = until
				}
			}
			if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to blacklist token", "error", err)
			}
		}
	}

	return c.JSON(fiber.Map{"ok": true})
}

// Me handles GET /api/me
func (s *Server) Me(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", userID))
	}
	return c.JSON(user.Sanitized(userID))
}

// ForgotPassword handles POST /api/auth/forgot-password. The response never
// reveals whether the email belongs to an account.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil || s.redis == nil {
		return c.JSON(fiber.Map{"ok": true})
	}

	resetToken := uuid.New().String()
	key := forgotPasswordKey + resetToken
	value := strconv.FormatUint(uint64(user.ID), 10)
	if err := s.redis.Set(c.Context(), key, value, resetTokenTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resetURL := fmt.Sprintf("%s/change-password/%s", s.config.AppURL, resetToken)
	if err := s.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to send reset mail", "error", err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ChangePassword handles POST /api/auth/change-password using a one-time
// reset token, and signs the user in on success.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("password reset unavailable")))
	}

	key := forgotPasswordKey + req.Token
	value, err := s.redis.Get(c.Context(), key).Result()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(models.FieldError{
				Field: "token", Message: "token expired",
			}))
	}
	userID, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(models.FieldError{
				Field: "token", Message: "token expired",
			}))
	}

	user, err := s.userService.ChangePassword(c.Context(), uint(userID), req.NewPassword)
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "VALIDATION_ERROR" {
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// One-time use
	s.redis.Del(c.Context(), key)

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Sanitized(user.ID),
	})
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
