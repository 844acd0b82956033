package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/storage"
)

type postMessageRequest struct {
	Content  string `json:"content"`
	Receiver string `json:"receiver"`
}

func limitOf(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// conversation returns the direct messages between the caller and :userId,
// oldest first.
func (a *API) conversation(c *gin.Context) {
	me := CurrentUser(c)
	other := c.Param("userId")
	msgs, err := a.store.Conversation(c.Request.Context(), string(me.ID), other, limitOf(c))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", string(me.ID)).Msg("conversation")
		errorJSON(c, http.StatusInternalServerError, "error fetching messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Content) == "" || req.Receiver == "" {
		errorJSON(c, http.StatusBadRequest, "content and receiver are required")
		return
	}
	me := CurrentUser(c)
	msg := &storage.Message{
		Sender:     string(me.ID),
		SenderName: me.Username,
		Receiver:   req.Receiver,
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	}
	a.saveMessage(c, msg)
}

func (a *API) roomHistory(c *gin.Context) {
	key, err := domain.ParseRoomKey(c.Param("key"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := a.store.RoomHistory(c.Request.Context(), string(key), limitOf(c))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(key)).Msg("room history")
		errorJSON(c, http.StatusInternalServerError, "error fetching messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) postRoomMessage(c *gin.Context) {
	key, err := domain.ParseRoomKey(c.Param("key"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		errorJSON(c, http.StatusBadRequest, "content is required")
		return
	}
	me := CurrentUser(c)
	a.saveMessage(c, &storage.Message{
		Sender:     string(me.ID),
		SenderName: me.Username,
		RoomKey:    string(key),
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	})
}

func (a *API) saveMessage(c *gin.Context, msg *storage.Message) {
	if err := a.store.SaveMessage(c.Request.Context(), msg); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", msg.Sender).Msg("save message")
		errorJSON(c, http.StatusInternalServerError, "error sending message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}
