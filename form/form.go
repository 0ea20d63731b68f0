// Package form validates a student registration and sends it, one request
// at a time.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"busreg-server-go/models"
)

// Field names used as keys in Errors.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldYear    = "year"
	FieldBusStop = "busStop"
)

// ErrInFlight is returned when a submission is attempted while another is pending.
var ErrInFlight = errors.New("a submission is already in progress")

// Input is the raw state of the registration form.
type Input struct {
	Name      string
	Phone     string
	Year      models.Year
	BusStopID *int64
}

// Request builds the creation request. Call only after Validate succeeds.
func (in Input) Request() models.CreateStudentRequest {
	req := models.CreateStudentRequest{
		Name:  strings.TrimSpace(in.Name),
		Phone: in.Phone,
		Year:  in.Year,
	}
	if in.BusStopID != nil {
		req.BusStopID = *in.BusStopID
	}
	return req
}

// Errors maps a field name to its message.
type Errors map[string]string

// Ok reports whether there are no field errors.
func (e Errors) Ok() bool { return len(e) == 0 }

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate checks the form locally. No network validation happens here.
func Validate(in Input) Errors {
	errs := Errors{}
	if strings.TrimSpace(in.Name) == "" {
		errs[FieldName] = "Please enter the student name"
	}
	if !models.IsPhone(in.Phone) {
		errs[FieldPhone] = "Phone number must be exactly 10 digits"
	}
	if !in.Year.Valid() {
		errs[FieldYear] = "Please select a year"
	}
	if in.BusStopID == nil {
		errs[FieldBusStop] = "Please select a bus stop"
	}
	return errs
}

// Creator sends a creation request, typically the API client.
type Creator interface {
	CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
}

// Submitter guards a Creator so that at most one submission is pending.
type Submitter struct {
	creator Creator

	mu       sync.Mutex
	inFlight bool
}

// NewSubmitter creates a Submitter over creator.
func NewSubmitter(creator Creator) *Submitter {
	return &Submitter{creator: creator}
}

// InFlight reports whether a submission is pending.
func (s *Submitter) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit validates in and, when valid, sends exactly one creation request.
// Validation failures are returned as Errors; a concurrent call gets ErrInFlight.
func (s *Submitter) Submit(ctx context.Context, in Input) (*models.Student, error) {
	if errs := Validate(in); !errs.Ok() {
		return nil, errs
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	student, err := s.creator.CreateStudent(ctx, in.Request())
	if err != nil {
		return nil, fmt.Errorf("failed to add student: %w", err)
	}
	return student, nil
}
