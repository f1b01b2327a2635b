package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/service/room"
	"mahjong-score/pkg/response"

	"github.com/gin-gonic/gin"
)

type createRoomBody struct {
	Name         string          `json:"name"`
	Mode         mahjong.Mode    `json:"mode"`
	PresetID     int64           `json:"presetId"`
	Settings     json.RawMessage `json:"settings"`
	LocalPlayers []string        `json:"localPlayers" binding:"max=3"`
}

// versionBody carries the room version the client last saw. Zero skips the check.
type versionBody struct {
	Version int64 `json:"version" binding:"min=0"`
}

type joinBody struct {
	Name string `json:"name"`
}

type orderBody struct {
	versionBody
	Order []string `json:"order" binding:"required,min=3,max=4"`
}

type winClaimBody struct {
	WinnerID string `json:"winnerId" binding:"required"`
	Han      int    `json:"han" binding:"required,min=1"`
	Fu       int    `json:"fu"`
	Chips    int    `json:"chips" binding:"min=0"`
}

type winBody struct {
	versionBody
	LoserID string         `json:"loserId"`
	Claims  []winClaimBody `json:"claims" binding:"required,min=1,max=3,dive"`
}

func (b winBody) toReport() mahjong.WinReport {
	claims := make([]mahjong.WinClaim, 0, len(b.Claims))
	for _, cl := range b.Claims {
		claims = append(claims, mahjong.WinClaim{
			WinnerID: cl.WinnerID,
			Hand:     mahjong.HandValue{Han: cl.Han, Fu: cl.Fu},
			Chips:    cl.Chips,
		})
	}
	return mahjong.WinReport{Claims: claims, LoserID: b.LoserID}
}

type drawBody struct {
	versionBody
	TenpaiIDs []string `json:"tenpaiIds"`
}

type riichiBody struct {
	versionBody
	PlayerID string `json:"playerId"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body createRoomBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	var settings mahjong.Settings
	if body.PresetID > 0 {
		var err error
		settings, err = h.services.Preset.Settings(c.Request.Context(), body.PresetID)
		if err != nil {
			writeError(c, err)
			return
		}
	} else {
		if body.Mode == "" {
			body.Mode = mahjong.FourPlayer
		}
		mode, err := parseMode(string(body.Mode))
		if err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		settings, err = mahjong.ParseSettings(mode, body.Settings)
		if err != nil {
			writeError(c, err)
			return
		}
	}
	if len(body.LocalPlayers) > 0 {
		settings.SingleDevice = true
	}

	view, err := h.services.Room.Create(c.Request.Context(), room.CreateParams{
		HostID:       playerID,
		HostName:     getPlayerName(c),
		Name:         body.Name,
		Settings:     settings,
		LocalPlayers: body.LocalPlayers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) GetRoom(c *gin.Context) {
	view, err := h.services.Room.Get(c.Request.Context(), roomParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body joinBody
	if !bindOptionalJSON(c, &body) {
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = getPlayerName(c)
	}

	view, err := h.services.Room.Join(c.Request.Context(), roomParam(c), playerID, name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) ReorderRoom(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body orderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.services.Room.Reorder(c.Request.Context(), roomParam(c), playerID, body.Version, body.Order)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) StartRoom(c *gin.Context) {
	h.versioned(c, h.services.Room.Start)
}

func (h *Handler) Undo(c *gin.Context) {
	h.versioned(c, h.services.Room.Undo)
}

func (h *Handler) NextGame(c *gin.Context) {
	h.versioned(c, h.services.Room.NextGame)
}

func (h *Handler) EndRoom(c *gin.Context) {
	h.versioned(c, h.services.Room.End)
}

func (h *Handler) ReportWin(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body winBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.services.Room.ReportWin(c.Request.Context(), roomParam(c), playerID, body.Version, body.toReport())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) ReportDraw(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body drawBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	res, err := h.services.Room.ReportDraw(c.Request.Context(), roomParam(c), playerID, body.Version, body.TenpaiIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) DeclareRiichi(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body riichiBody
	if !bindOptionalJSON(c, &body) {
		return
	}
	target := strings.TrimSpace(body.PlayerID)
	if target == "" {
		target = playerID
	}

	view, err := h.services.Room.DeclareRiichi(c.Request.Context(), roomParam(c), playerID, body.Version, target)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) Settlement(c *gin.Context) {
	st, err := h.services.Room.Settlement(c.Request.Context(), roomParam(c), c.Query("rate"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, st)
}

type versionedOp func(ctx context.Context, roomID, actorID string, expected int64) (*room.View, error)

// versioned runs a room operation whose only input is the expected version.
func (h *Handler) versioned(c *gin.Context, op versionedOp) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body versionBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	view, err := op(c.Request.Context(), roomParam(c), playerID, body.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

// bindOptionalJSON binds the body when there is one. It writes the error
// response itself and reports whether the handler should continue.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func roomParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("id")))
}
