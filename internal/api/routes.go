package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/auth"
	"github.com/satriahrh/iris/internal/live"
	"github.com/satriahrh/iris/internal/websocket"
)

const (
	claimsKey          = "claims"
	defaultMemoryLimit = 20
	maxMemoryLimit     = 500
	connectTimeout     = 30 * time.Second
)

// SessionController is the live service as seen by the control API
type SessionController interface {
	Connect(ctx context.Context) (entities.SessionStatus, error)
	Disconnect()
	SetMute(muted bool) entities.SessionStatus
	SendVideoFrame(frame string) error
	Status() entities.SessionStatus
}

// Handler holds the dependencies of the control API
type Handler struct {
	Hub           *websocket.Hub
	Session       SessionController
	Memory        repositories.MemoryRepository
	Notes         repositories.NoteRepository
	Issuer        *auth.Issuer
	ControlSecret string
	Logger        *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "iris",
			"session": string(h.Session.Status().State),
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/token", h.issueToken)

	protected := v1.Group("", h.requireToken)

	protected.GET("/session", h.getSession)
	protected.POST("/session/connect", h.connectSession)
	protected.POST("/session/disconnect", h.disconnectSession)
	protected.POST("/session/mute", h.muteSession)
	protected.POST("/session/video", h.sendVideoFrame)

	protected.GET("/memory", h.getMemory)
	protected.GET("/notes", h.getNotes)
	protected.DELETE("/notes/:filename", h.deleteNote)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return h.websocketWithAuth(c)
	})
}

func (h *Handler) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if h.ControlSecret != "" && subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.ControlSecret)) != 1 {
		h.Logger.Warn("Control token request rejected", zap.String("remote", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid control secret",
		})
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.New().String()
	}

	token, expiresAt, err := h.Issuer.GenerateControlToken(clientID)
	if err != nil {
		h.Logger.Error("Failed to generate control token", zap.String("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	h.Logger.Info("Control token issued", zap.String("client_id", clientID))
	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

// bearerToken extracts the JWT from the Authorization header or the token query parameter
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		return token
	}
	return c.QueryParam("token")
}

func (h *Handler) authenticate(c echo.Context) (*auth.JWTClaims, error) {
	token := bearerToken(c)
	if token == "" {
		h.Logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := h.Issuer.ValidateToken(token)
	if err != nil {
		h.Logger.Warn("Request rejected: invalid token", zap.Error(err))
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != auth.RoleController {
		h.Logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
		return nil, c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only controller tokens are accepted",
		})
	}
	return claims, nil
}

func (h *Handler) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, resp := h.authenticate(c)
		if claims == nil {
			return resp
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

func (h *Handler) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Session.Status())
}

func (h *Handler) connectSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), connectTimeout)
	defer cancel()

	status, err := h.Session.Connect(ctx)
	switch {
	case errors.Is(err, live.ErrMissingAPIKey):
		return c.JSON(http.StatusPreconditionFailed, ErrorResponse{
			Error:   "missing_api_key",
			Message: "GEMINI_API_KEY is not configured",
		})
	case errors.Is(err, live.ErrConnectSuperseded):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "connect_superseded",
			Message: "A newer connect or disconnect request took over",
		})
	case err != nil:
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "connect_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) disconnectSession(c echo.Context) error {
	h.Session.Disconnect()
	return c.JSON(http.StatusOK, h.Session.Status())
}

func (h *Handler) muteSession(c echo.Context) error {
	var req MuteRequest
	if err := c.Bind(&req); err != nil || req.Muted == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "muted is required",
		})
	}
	return c.JSON(http.StatusOK, h.Session.SetMute(*req.Muted))
}

func (h *Handler) sendVideoFrame(c echo.Context) error {
	var req VideoFrameRequest
	if err := c.Bind(&req); err != nil || req.Data == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "data is required",
		})
	}

	if err := h.Session.SendVideoFrame(req.Data); err != nil {
		if errors.Is(err, live.ErrNotConnected) || errors.Is(err, live.ErrSessionClosed) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "not_connected",
				Message: "No live session is connected",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "send_failed",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) getMemory(c echo.Context) error {
	limit := defaultMemoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a positive integer",
			})
		}
		limit = min(n, maxMemoryLimit)
	}

	entries, err := h.Memory.Recent(c.Request().Context(), limit)
	if err != nil {
		h.Logger.Error("Failed to load memory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "memory_unavailable",
			Message: "Failed to load memory",
		})
	}
	if entries == nil {
		entries = []*entities.MemoryEntry{}
	}
	return c.JSON(http.StatusOK, MemoryResponse{Entries: entries})
}

func (h *Handler) getNotes(c echo.Context) error {
	notes, err := h.Notes.List(c.Request().Context())
	if err != nil {
		h.Logger.Error("Failed to list notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "notes_unavailable",
			Message: "Failed to list notes",
		})
	}
	if notes == nil {
		notes = []*entities.Note{}
	}
	return c.JSON(http.StatusOK, NotesResponse{Notes: notes})
}

func (h *Handler) deleteNote(c echo.Context) error {
	filename := c.Param("filename")
	err := h.Notes.Delete(c.Request().Context(), filename)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "note_not_found",
			Message: "No note named " + filename,
		})
	case err != nil:
		h.Logger.Error("Failed to delete note", zap.String("filename", filename), zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "delete_failed",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (h *Handler) websocketWithAuth(c echo.Context) error {
	claims, resp := h.authenticate(c)
	if claims == nil {
		return resp
	}

	h.Logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(h.Hub, c, claims.ClientID, h.Logger)
}
