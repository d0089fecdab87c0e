package auth

import (
	"net/http"
	"strings"
	"time"

	"callsync/internal/shared/apperror"
	"callsync/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const accessTokenCookie = "access_token"

type Handler struct {
	service      Service
	secureCookie bool
	logger       *zap.Logger
}

func NewHandler(s Service, secureCookie bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookie: secureCookie, logger: l}
}

// isWebClient: browsers get the token as an HttpOnly cookie as well, devices
// only read it from the body.
func isWebClient(c *gin.Context) bool {
	switch strings.ToLower(strings.TrimSpace(c.GetHeader("X-Client-Type"))) {
	case "web", "browser":
		return true
	case "":
		return strings.Contains(c.GetHeader("User-Agent"), "Mozilla") &&
			!strings.Contains(c.GetHeader("User-Agent"), "okhttp")
	default:
		return false
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("auth request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) setTokenCookie(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if value == "" || maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) login(c *gin.Context, fn func(*gin.Context, LoginRequest) (LoginResponse, error)) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := fn(c, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if isWebClient(c) {
		h.setTokenCookie(c, res.Token, res.ExpiresAt)
	}

	response.Success(c, http.StatusOK, "Login successful", res, nil)
}

func (h *Handler) EmployeeLogin(c *gin.Context) {
	h.login(c, func(c *gin.Context, req LoginRequest) (LoginResponse, error) {
		return h.service.EmployeeLogin(c.Request.Context(), req)
	})
}

func (h *Handler) AdminLogin(c *gin.Context) {
	h.login(c, func(c *gin.Context, req LoginRequest) (LoginResponse, error) {
		return h.service.AdminLogin(c.Request.Context(), req)
	})
}

func (h *Handler) Me(c *gin.Context) {
	res, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Profile fetched", res, nil)
}

// Logout only clears the cookie; tokens are stateless and expire on their own.
func (h *Handler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", time.Time{})
	response.Success(c, http.StatusOK, "Logout successful", nil, nil)
}
