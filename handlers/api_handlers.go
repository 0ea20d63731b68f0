package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"busreg-server-go/autocomplete"
	"busreg-server-go/db"
	"busreg-server-go/logging"
	"busreg-server-go/models"
)

// APIHandler holds the dependencies for API handlers, like the store
type APIHandler struct {
	Store       db.Store
	log         *zap.Logger
	searchLimit int
}

// NewAPIHandler creates a new APIHandler. searchLimit caps /bus-stops/search
// results when the request does not ask for fewer.
func NewAPIHandler(store db.Store, log *zap.Logger, searchLimit int) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if searchLimit <= 0 {
		searchLimit = autocomplete.DefaultLimit
	}
	return &APIHandler{
		Store:       store,
		log:         log,
		searchLimit: searchLimit,
	}
}

// --- Error responses ---

func validationError(c *gin.Context, msg string, fields map[string]string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg, Code: models.CodeValidation, Fields: fields})
}

// fail maps a store error onto a status code and error payload
func (h *APIHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, db.ErrInvalid):
		validationError(c, err.Error(), nil)
	case errors.Is(err, db.ErrBusStopNotFound):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:  "selected bus stop does not exist",
			Code:   models.CodeNotFound,
			Fields: map[string]string{"busStopId": "unknown bus stop"},
		})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msg + ": not found", Code: models.CodeNotFound})
	default:
		_ = c.Error(err)
		h.log.Error(msg, zap.String("requestId", logging.RequestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msg, Code: models.CodeInternal})
	}
}

// --- Bus Stop Handlers ---

// GetAllBusStops handles GET /bus-stops
func (h *APIHandler) GetAllBusStops(c *gin.Context) {
	stops, err := h.Store.ListBusStops(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch bus stops")
		return
	}
	if stops == nil {
		// Return empty list instead of null for JSON consistency
		stops = []models.BusStop{}
	}
	c.JSON(http.StatusOK, stops)
}

// GetBusStopByID handles GET /bus-stops/:id
func (h *APIHandler) GetBusStopByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		validationError(c, "Bus stop ID must be a positive integer", nil)
		return
	}
	stop, err := h.Store.GetBusStop(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to fetch bus stop")
		return
	}
	c.JSON(http.StatusOK, stop)
}

// AddBusStop handles POST /bus-stops
func (h *APIHandler) AddBusStop(c *gin.Context) {
	var req models.CreateBusStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "Invalid request body: "+err.Error(), nil)
		return
	}
	stop, err := h.Store.CreateBusStop(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to create bus stop")
		return
	}
	c.JSON(http.StatusCreated, stop)
}

// SearchBusStops handles GET /bus-stops/search?q=&limit=
func (h *APIHandler) SearchBusStops(c *gin.Context) {
	limit := h.searchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			validationError(c, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, h.searchLimit)
	}

	stops, err := h.Store.ListBusStops(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to search bus stops")
		return
	}
	matches := autocomplete.Match(stops, c.Query("q"), limit)
	if matches == nil {
		matches = []models.BusStop{}
	}
	c.JSON(http.StatusOK, matches)
}

// --- Student Handlers ---

// GetAllStudents handles GET /students
func (h *APIHandler) GetAllStudents(c *gin.Context) {
	students, err := h.Store.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch students")
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent handles POST /students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "Invalid request body: "+err.Error(), nil)
		return
	}
	if fields := req.FieldErrors(); len(fields) > 0 {
		validationError(c, "Invalid student", fields)
		return
	}

	student, err := h.Store.CreateStudent(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to create student")
		return
	}
	c.JSON(http.StatusCreated, student)
}

// --- Spreadsheet Handlers ---

// ExportStudents handles GET /export
func (h *APIHandler) ExportStudents(c *gin.Context) {
	students, err := h.Store.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to export students")
		return
	}

	// Build in memory so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := db.WriteStudentsWorkbook(&buf, students); err != nil {
		h.fail(c, err, "Failed to export students")
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+db.ExportFilename)
	c.Data(http.StatusOK, db.ExportContentType, buf.Bytes())
}

// ImportBusStops handles POST /import/bus-stops
func (h *APIHandler) ImportBusStops(c *gin.Context) {
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		validationError(c, "Error retrieving uploaded file: "+err.Error(), nil)
		return
	}
	defer file.Close()

	h.log.Info("received bus stop import", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	report, err := db.ImportBusStopsFromExcel(c.Request.Context(), h.Store, file, h.log)
	if err != nil {
		if report == nil {
			// The workbook itself could not be read
			validationError(c, "Failed to import bus stops: "+err.Error(), nil)
			return
		}
		h.fail(c, err, "Failed to import bus stops")
		return
	}

	c.JSON(http.StatusOK, models.ImportResult{
		Message:       "Import successful",
		ImportedCount: report.Imported,
		SkippedRows:   report.SkippedRows,
	})
}

// --- Ping Handler ---

// Ping handles GET /ping and checks the store connection
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.log.Warn("store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "store unavailable", Code: models.CodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
