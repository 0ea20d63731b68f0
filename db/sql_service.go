package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"busreg-server-go/models"
)

// SQLService stores bus stops and students in a relational database through GORM
type SQLService struct {
	DB  *gorm.DB
	log *zap.Logger
}

var _ Store = (*SQLService)(nil)

// OpenSQLite opens (creating if needed) a SQLite database at path and migrates
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string, log *zap.Logger) (*SQLService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if sqlDB, err := gdb.DB(); err == nil && path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQLService(gdb, log)
}

// NewSQLService migrates the schema on gdb and wraps it
func NewSQLService(gdb *gorm.DB, log *zap.Logger) (*SQLService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gdb.AutoMigrate(&models.BusStop{}, &models.Student{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLService{DB: gdb, log: log}, nil
}

// CreateBusStop inserts a bus stop
func (s *SQLService) CreateBusStop(ctx context.Context, req models.CreateBusStopRequest) (*models.BusStop, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: bus stop name cannot be empty", ErrInvalid)
	}
	stop := models.BusStop{Name: name, Location: trimmedOrNil(req.Location)}
	if err := s.DB.WithContext(ctx).Create(&stop).Error; err != nil {
		return nil, fmt.Errorf("failed to insert bus stop: %w", err)
	}
	s.log.Info("added bus stop", zap.Int64("id", stop.ID), zap.String("name", stop.Name))
	return &stop, nil
}

// GetBusStop retrieves a bus stop by its ID
func (s *SQLService) GetBusStop(ctx context.Context, id int64) (*models.BusStop, error) {
	var stop models.BusStop
	err := s.DB.WithContext(ctx).First(&stop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bus stop %d: %w", id, err)
	}
	return &stop, nil
}

// ListBusStops retrieves all bus stops ordered by ID
func (s *SQLService) ListBusStops(ctx context.Context) ([]models.BusStop, error) {
	var stops []models.BusStop
	if err := s.DB.WithContext(ctx).Order("id").Find(&stops).Error; err != nil {
		return nil, fmt.Errorf("failed to query bus stops: %w", err)
	}
	return stops, nil
}

// CreateStudent inserts a student after checking the bus stop reference.
// The check and the insert share a transaction.
func (s *SQLService) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if errs := req.FieldErrors(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, errs)
	}

	student := models.Student{
		Name:      strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Year:      req.Year,
		BusStopID: req.BusStopID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stop models.BusStop
		if err := tx.First(&stop, req.BusStopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBusStopNotFound
			}
			return err
		}
		if err := tx.Omit("BusStop").Create(&student).Error; err != nil {
			return err
		}
		student.BusStop = &stop
		return nil
	})
	if errors.Is(err, ErrBusStopNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}
	s.log.Debug("added student", zap.Int64("id", student.ID), zap.Int64("busStopId", student.BusStopID))
	return &student, nil
}

// ListStudents retrieves all students with their bus stop preloaded
func (s *SQLService) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := s.DB.WithContext(ctx).Preload("BusStop").Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	return students, nil
}

// Ping checks the connection
func (s *SQLService) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *SQLService) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
