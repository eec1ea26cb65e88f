package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rental-auction/internal/broadcast"
	"rental-auction/internal/ws"
	"rental-auction/services/auction/helpers"
	"rental-auction/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades observer connections and wires them into the hub.
type WSHandler struct {
	hub     *ws.Hub
	service AuctionServiceInterface
}

func NewWSHandler(hub *ws.Hub, service AuctionServiceInterface) *WSHandler {
	return &WSHandler{hub: hub, service: service}
}

// StreamAuctionHandler handles GET /ws/auctions/:auction_id?user_id=...
// The connection subscribes to the auction's status and participant
// topics, joins the observer set, and receives the current status
// snapshot immediately. Disconnecting leaves the observer set.
func (h *WSHandler) StreamAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	userID := c.Query("user_id")
	if userID == "" {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("missing user_id query parameter"), "missing user_id")
		return
	}

	snapshot, err := h.service.Snapshot(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("StreamAuctionHandler: upgrade failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Subscribe(client, broadcast.StatusTopic(auctionID), broadcast.ParticipantTopic(auctionID))

	if data, err := broadcast.NewEvent(broadcast.TypeAuctionStatus, snapshot).JSON(); err == nil {
		client.Send(data)
	}

	if err := h.service.JoinAuction(auctionID, userID); err != nil {
		utils.Warn("StreamAuctionHandler: join failed", map[string]any{
			"auction_id": auctionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
	}

	utils.Info("StreamAuctionHandler: observer connected", map[string]any{
		"auction_id": auctionID,
		"user_id":    userID,
	})

	client.Run(func() {
		if err := h.service.LeaveAuction(auctionID, userID); err != nil {
			utils.Warn("StreamAuctionHandler: leave failed", map[string]any{
				"auction_id": auctionID,
				"user_id":    userID,
				"error":      err.Error(),
			})
		}
		utils.Info("StreamAuctionHandler: observer disconnected", map[string]any{
			"auction_id": auctionID,
			"user_id":    userID,
		})
	})
}
