package models

import (
	"strconv"
	"strings"
	"time"
)

// BusStop represents a pickup/drop-off point in the directory
type BusStop struct {
	ID       int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string  `json:"name" gorm:"size:200;not null"`
	Location *string `json:"location,omitempty" gorm:"size:200"` // Optional free-form location
}

// TableName pins the GORM table name
func (BusStop) TableName() string {
	return "bus_stops"
}

// IDString returns the decimal form of the id, used for id matching
func (b BusStop) IDString() string {
	return strconv.FormatInt(b.ID, 10)
}

// LocationOrEmpty returns the location, or "" when unset
func (b BusStop) LocationOrEmpty() string {
	if b.Location == nil {
		return ""
	}
	return *b.Location
}

// Year is the academic year of a student
type Year string

const (
	YearI   Year = "I"
	YearII  Year = "II"
	YearIII Year = "III"
	YearIV  Year = "IV"
)

// Years lists every valid year in display order
var Years = []Year{YearI, YearII, YearIII, YearIV}

// Valid reports whether y is one of the enumerated years
func (y Year) Valid() bool {
	for _, v := range Years {
		if y == v {
			return true
		}
	}
	return false
}

// Student represents a registration
type Student struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Phone     string    `json:"phone" gorm:"size:10;not null"`
	Year      Year      `json:"year" gorm:"size:3;not null"`
	BusStopID int64     `json:"busStopId" gorm:"not null;index"`
	BusStop   *BusStop  `json:"busStop,omitempty" gorm:"foreignKey:BusStopID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName pins the GORM table name
func (Student) TableName() string {
	return "students"
}

// BusStopName returns the joined bus stop name, or "" when not loaded
func (s Student) BusStopName() string {
	if s.BusStop == nil {
		return ""
	}
	return s.BusStop.Name
}

// CreateBusStopRequest is the body of POST /bus-stops
type CreateBusStopRequest struct {
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
}

// CreateStudentRequest is the body of POST /students
type CreateStudentRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Year      Year   `json:"year"`
	BusStopID int64  `json:"busStopId"`
}

// IsPhone reports whether s is exactly ten decimal digits
func IsPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FieldErrors returns per-field problems with the request, empty when valid.
// The bus stop reference is checked by the store, not here.
func (r CreateStudentRequest) FieldErrors() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if !IsPhone(r.Phone) {
		errs["phone"] = "phone must be exactly 10 digits"
	}
	if !r.Year.Valid() {
		errs["year"] = "year must be one of I, II, III, IV"
	}
	if r.BusStopID <= 0 {
		errs["busStopId"] = "a bus stop must be selected"
	}
	return errs
}
