package db

import (
	"context"
	"errors"

	"busreg-server-go/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrBusStopNotFound is returned when a student references a missing bus stop
	ErrBusStopNotFound = errors.New("referenced bus stop does not exist")
	// ErrInvalid is returned when a record is missing required fields
	ErrInvalid = errors.New("invalid record")
)

// Store is the persistence layer behind the HTTP API. Implementations must be
// safe for concurrent use.
type Store interface {
	// ListBusStops returns every bus stop ordered by id
	ListBusStops(ctx context.Context) ([]models.BusStop, error)
	// GetBusStop returns ErrNotFound when id is unknown
	GetBusStop(ctx context.Context, id int64) (*models.BusStop, error)
	CreateBusStop(ctx context.Context, req models.CreateBusStopRequest) (*models.BusStop, error)
	// ListStudents returns every student, ordered by id, with BusStop joined
	ListStudents(ctx context.Context) ([]models.Student, error)
	// CreateStudent returns ErrBusStopNotFound when the reference is dangling
	CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
	Ping(ctx context.Context) error
	Close() error
}
