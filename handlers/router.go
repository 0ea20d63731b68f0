package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"busreg-server-go/logging"
)

// NewRouter wires the API routes and middleware onto a fresh gin engine
func NewRouter(h *APIHandler, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(logging.Middleware(log), logging.Recovery(log))

	// Bus stop routes
	router.GET("/bus-stops", h.GetAllBusStops)
	router.GET("/bus-stops/search", h.SearchBusStops)
	router.GET("/bus-stops/:id", h.GetBusStopByID)
	router.POST("/bus-stops", h.AddBusStop)

	// Student routes
	router.GET("/students", h.GetAllStudents)
	router.POST("/students", h.AddStudent)

	// Spreadsheet routes
	router.GET("/export", h.ExportStudents)
	router.POST("/import/bus-stops", h.ImportBusStops)

	router.GET("/ping", h.Ping)
	return router
}
