package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"busreg-server-go/db"
	"busreg-server-go/handlers"
	"busreg-server-go/models"
)

func newServer(t *testing.T) (*Client, db.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := db.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(handlers.NewRouter(handlers.NewAPIHandler(store, nil, 10), zap.NewNop()))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second), store
}

func TestClient_RoundTrip(t *testing.T) {
	c, _ := newServer(t)
	ctx := context.Background()

	stop, err := c.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "North Yard"})
	require.NoError(t, err)

	stops, err := c.ListBusStops(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "North Yard", stops[0].Name)

	created, err := c.CreateStudent(ctx, models.CreateStudentRequest{
		Name: "Asha", Phone: "9876543210", Year: models.YearII, BusStopID: stop.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	students, err := c.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "North Yard", students[0].BusStopName())

	var buf bytes.Buffer
	n, err := c.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, "PK", buf.String()[:2], "xlsx is a zip archive")
}

func TestClient_APIError(t *testing.T) {
	c, _ := newServer(t)

	_, err := c.CreateStudent(context.Background(), models.CreateStudentRequest{
		Name: "Asha", Phone: "9876543210", Year: models.YearII, BusStopID: 77,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, models.CodeNotFound, apiErr.Payload.Code)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListBusStops(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "server returned 502", apiErr.Error())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).ListStudents(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
}
