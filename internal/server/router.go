package server

import (
	auction "rental-auction/internal/auctionService"
	"rental-auction/internal/ws"
	handler "rental-auction/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, hub *ws.Hub) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	wsHandler := handler.NewWSHandler(hub, auctionService)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsHandler)
		auctions.GET("/:auction_id/winning", auctionHandler.GetWinningBidHandler)
		auctions.GET("/:auction_id/status", auctionHandler.GetStatusHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.POST("/:auction_id/join", auctionHandler.JoinAuctionHandler)
		auctions.POST("/:auction_id/leave", auctionHandler.LeaveAuctionHandler)
	}

	owners := router.Group("/owners")
	{
		owners.GET("/:owner_id/auctions", auctionHandler.GetAuctionsByOwnerHandler)
	}

	bidders := router.Group("/bidders")
	{
		bidders.GET("/:bidder_id/auctions", auctionHandler.GetAuctionsByBidderHandler)
	}

	rentals := router.Group("/rentals")
	{
		rentals.GET("/:rental_id", auctionHandler.GetRentalHandler)
		rentals.POST("/:rental_id/payment", auctionHandler.ConfirmPaymentHandler)
		rentals.POST("/:rental_id/fine/payment", auctionHandler.PayFineHandler)
	}

	router.GET("/ws/auctions/:auction_id", wsHandler.StreamAuctionHandler)

	return router
}
