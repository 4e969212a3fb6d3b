package api

import (
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/api/handler"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/api/middleware"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	as *service.AuthService,
	ps *service.ParkingService,
	rs *service.RetentionService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint, no auth so dashboards can connect directly.
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		parkingH := handler.NewParkingHandler(ps)
		parkingRoutes := v1.Group("/parking")
		{
			parkingRoutes.POST("/entry", parkingH.VehicleEntry)
			parkingRoutes.POST("/entry/photo", parkingH.VehicleEntryWithPhoto)
			parkingRoutes.POST("/exit", parkingH.VehicleExit)
		}

		sessionRoutes := v1.Group("/parking-sessions")
		{
			sessionRoutes.GET("", parkingH.FindParkingSessions)
			sessionRoutes.GET("/:id", parkingH.GetParkingSessionByID)
		}

		spaceH := handler.NewSpaceHandler(ps)
		spaceRoutes := v1.Group("/parking-spaces")
		{
			spaceRoutes.POST("", authMw.AuthorizeRole("admin"), spaceH.CreateParkingSpace)
			spaceRoutes.GET("", spaceH.GetAllParkingSpaces)
			spaceRoutes.GET("/availability", spaceH.GetAvailability)
			spaceRoutes.GET("/:id", spaceH.GetParkingSpaceByID)
			spaceRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), spaceH.DeleteParkingSpace)
		}

		rateH := handler.NewRateHandler(ps)
		rateRoutes := v1.Group("/parking-rates")
		{
			rateRoutes.POST("", authMw.AuthorizeRole("admin"), rateH.CreateParkingRate)
			rateRoutes.GET("", rateH.GetAllParkingRates)
			rateRoutes.GET("/:id", rateH.GetParkingRateByID)
			rateRoutes.POST("/:id/deactivate", authMw.AuthorizeRole("admin"), rateH.DeactivateParkingRate)
		}

		dashboardH := handler.NewDashboardHandler(ps)
		v1.GET("/dashboard", dashboardH.GetDashboardData)

		if rs != nil {
			retentionH := handler.NewRetentionHandler(rs)
			retentionRoutes := v1.Group("/retention")
			retentionRoutes.Use(authMw.AuthorizeRole("admin"))
			{
				retentionRoutes.POST("/export", retentionH.Export)
				retentionRoutes.POST("/import", retentionH.Import)
				retentionRoutes.POST("/purge", retentionH.Purge)
			}
		}
	}
	return r
}
