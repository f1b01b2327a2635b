package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/middleware"
	"mahjong-score/internal/service"
	presetSvc "mahjong-score/internal/service/preset"
	"mahjong-score/internal/ws"
	pkgAuth "mahjong-score/pkg/auth"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"
	"mahjong-score/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Room, services.Hub)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/guest", middleware.OptionalAuth(), handler.GuestLogin)

		rulesGroup := v1.Group("/rules")
		{
			rulesGroup.GET("/defaults", handler.DefaultRules)
			rulesGroup.POST("/quote", handler.QuoteHand)
		}

		v1.GET("/presets", handler.ListPresets)

		protected := v1.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.POST("/presets", handler.CreatePreset)
			protected.PUT("/presets/:id", handler.UpdatePreset)

			protected.POST("/rooms", handler.CreateRoom)
			protected.GET("/rooms/:id", handler.GetRoom)
			protected.POST("/rooms/:id/join", handler.JoinRoom)
			protected.PUT("/rooms/:id/order", handler.ReorderRoom)
			protected.POST("/rooms/:id/start", handler.StartRoom)
			protected.POST("/rooms/:id/hands/win", handler.ReportWin)
			protected.POST("/rooms/:id/hands/draw", handler.ReportDraw)
			protected.POST("/rooms/:id/riichi", handler.DeclareRiichi)
			protected.POST("/rooms/:id/undo", handler.Undo)
			protected.POST("/rooms/:id/next-game", handler.NextGame)
			protected.POST("/rooms/:id/end", handler.EndRoom)
			protected.GET("/rooms/:id/settlement", handler.Settlement)

			protected.GET("/me/rooms", handler.MyRooms)
			protected.GET("/me/stats", handler.MyStats)
		}
	}

	r.GET("/ws/rooms/:id", wsHandler.HandleRoomWS)
}

type guestBody struct {
	Name string `json:"name" binding:"required"`
}

type quoteBody struct {
	Mode     mahjong.Mode      `json:"mode"`
	Settings json.RawMessage   `json:"settings"`
	Han      int               `json:"han" binding:"required,min=1"`
	Fu       int               `json:"fu"`
	Dealer   bool              `json:"dealer"`
	Method   mahjong.WinMethod `json:"method" binding:"required,oneof=tsumo ron"`
}

type presetBody struct {
	Name     string          `json:"name" binding:"required"`
	Mode     mahjong.Mode    `json:"mode" binding:"required,oneof=4ma 3ma"`
	Settings json.RawMessage `json:"settings"`
	Status   string          `json:"status" binding:"omitempty,oneof=enabled disabled"`
}

func (b presetBody) toParams() presetSvc.MutationParams {
	return presetSvc.MutationParams{
		Name:     strings.TrimSpace(b.Name),
		Mode:     b.Mode,
		Settings: b.Settings,
		Status:   b.Status,
	}
}

func (h *Handler) GuestLogin(c *gin.Context) {
	var body guestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var prev *pkgAuth.Claims
	if v, ok := c.Get(middleware.ContextClaimsKey); ok {
		prev, _ = v.(*pkgAuth.Claims)
	}
	resp, err := h.services.Auth.Guest(c.Request.Context(), body.Name, prev)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *Handler) DefaultRules(c *gin.Context) {
	mode, err := parseMode(c.DefaultQuery("mode", string(mahjong.FourPlayer)))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, mahjong.DefaultSettings(mode))
}

// QuoteHand prices a single hand under the given rules without touching a room.
func (h *Handler) QuoteHand(c *gin.Context) {
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if body.Mode == "" {
		body.Mode = mahjong.FourPlayer
	}
	mode, err := parseMode(string(body.Mode))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := mahjong.ParseSettings(mode, body.Settings)
	if err != nil {
		writeError(c, err)
		return
	}

	hand := mahjong.HandValue{Han: body.Han, Fu: body.Fu}
	if err := settings.CheckHand(hand); err != nil {
		writeError(c, err)
		return
	}
	role := mahjong.NonDealer
	if body.Dealer {
		role = mahjong.Dealer
	}
	payment := mahjong.CalculatePayment(settings, hand, role, body.Method)
	response.Success(c, gin.H{
		"payment": payment,
		"total":   payment.Total(settings.Seats()),
	})
}

func (h *Handler) ListPresets(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Preset.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, response.Page{
		Items: result.Items,
		Total: result.Total,
		Page:  page,
		Size:  size,
	})
}

func (h *Handler) CreatePreset(c *gin.Context) {
	var body presetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	preset, err := h.services.Preset.Create(c.Request.Context(), body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, preset)
}

func (h *Handler) UpdatePreset(c *gin.Context) {
	presetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || presetID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid preset id")
		return
	}

	var body presetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	preset, err := h.services.Preset.Update(c.Request.Context(), presetID, body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, preset)
}

func (h *Handler) MyRooms(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Room.ListForPlayer(c.Request.Context(), playerID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, response.Page{
		Items: result.Items,
		Total: result.Total,
		Page:  page,
		Size:  size,
	})
}

func (h *Handler) MyStats(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, err := parsePositiveIntQuery(c, "limit", 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.services.Stats.ForPlayer(c.Request.Context(), playerID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, summary)
}

// writeError maps service and engine errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, appErr.ErrRoomNotFound), errors.Is(err, appErr.ErrPresetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, appErr.ErrNotRoomHost), errors.Is(err, appErr.ErrNotRoomMember):
		status = http.StatusForbidden
	case errors.Is(err, appErr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, appErr.ErrVersionConflict),
		errors.Is(err, appErr.ErrNothingToUndo),
		errors.Is(err, appErr.ErrRoomClosed),
		errors.Is(err, gorm.ErrDuplicatedKey):
		status = http.StatusConflict
	case errors.Is(err, appErr.ErrInvalidName),
		errors.Is(err, mahjong.ErrInvalidSettings),
		errors.Is(err, mahjong.ErrInvalidPlayerCount),
		errors.Is(err, mahjong.ErrUnknownPlayer),
		errors.Is(err, mahjong.ErrInvalidHand),
		errors.Is(err, mahjong.ErrInvalidOutcome),
		errors.Is(err, mahjong.ErrNotPlaying),
		errors.Is(err, mahjong.ErrNotWaiting),
		errors.Is(err, mahjong.ErrRiichiNotAllowed),
		errors.Is(err, mahjong.ErrRoomFull),
		errors.Is(err, mahjong.ErrAlreadySeated):
		status = http.StatusBadRequest
	default:
		logger.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, status, err.Error())
}

func parseMode(raw string) (mahjong.Mode, error) {
	mode := mahjong.Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode.Seats() == 0 {
		return "", fmt.Errorf("invalid mode %q", raw)
	}
	return mode, nil
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getPlayerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.ContextPlayerIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func getPlayerName(c *gin.Context) string {
	return c.GetString(middleware.ContextNameKey)
}
