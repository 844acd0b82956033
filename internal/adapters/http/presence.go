package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
)

// GET /api/rooms
func (a *API) listRooms(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	rooms, err := a.orch.ListRooms(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GET /api/rooms/:key/members
func (a *API) roomMembers(c *gin.Context) {
	key, err := domain.ParseRoomKey(c.Param("key"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	members, err := a.orch.Members(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(key)).Msg("room members")
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": key, "members": protocol.PeersOf(members)})
}

// GET /api/calls
func (a *API) activeCalls(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	calls, err := a.orch.ActiveCalls(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("active calls")
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
