package db

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"busreg-server-go/models"
)

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisService(client, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSQLStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var storeFactories = map[string]func(t *testing.T) Store{
	"redis":  newRedisStore,
	"sqlite": newSQLStore,
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestStore_BusStops(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		stops, err := s.ListBusStops(ctx)
		require.NoError(t, err)
		assert.Empty(t, stops)

		first, err := s.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "  Central Station "})
		require.NoError(t, err)
		assert.Equal(t, "Central Station", first.Name)
		assert.Nil(t, first.Location)

		second, err := s.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "North Yard", Location: strPtr("Depot Road")})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)

		got, err := s.GetBusStop(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Location)
		assert.Equal(t, "Depot Road", *got.Location)

		stops, err = s.ListBusStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 2)
		assert.Equal(t, first.ID, stops[0].ID)
		assert.Equal(t, second.ID, stops[1].ID)
	})
}

func TestStore_BusStopValidation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.CreateBusStop(context.Background(), models.CreateBusStopRequest{Name: "   "})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestStore_GetBusStopNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.GetBusStop(context.Background(), 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Students(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		stop, err := s.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "Central Park"})
		require.NoError(t, err)

		created, err := s.CreateStudent(ctx, models.CreateStudentRequest{
			Name: "Asha", Phone: "9876543210", Year: models.YearIII, BusStopID: stop.ID,
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		require.NotNil(t, created.BusStop)
		assert.Equal(t, "Central Park", created.BusStop.Name)

		students, err := s.ListStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "Asha", students[0].Name)
		assert.Equal(t, models.YearIII, students[0].Year)
		assert.Equal(t, "Central Park", students[0].BusStopName())
	})
}

func TestStore_StudentDanglingReference(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.CreateStudent(context.Background(), models.CreateStudentRequest{
			Name: "Asha", Phone: "9876543210", Year: models.YearI, BusStopID: 99,
		})
		assert.ErrorIs(t, err, ErrBusStopNotFound)

		students, err := s.ListStudents(context.Background())
		require.NoError(t, err)
		assert.Empty(t, students)
	})
}

func TestStore_StudentValidation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.CreateStudent(context.Background(), models.CreateStudentRequest{
			Name: "Asha", Phone: "12", Year: models.YearI, BusStopID: 1,
		})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestSeedIfEmpty(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		added, err := SeedIfEmpty(ctx, s, nil)
		require.NoError(t, err)
		assert.Equal(t, len(initialBusStops), added)

		added, err = SeedIfEmpty(ctx, s, nil)
		require.NoError(t, err)
		assert.Zero(t, added, "second seed is a no-op")
	})
}

func TestWriteStudentsWorkbook(t *testing.T) {
	students := []models.Student{
		{Name: "Asha", Phone: "0876543210", Year: models.YearII, BusStop: &models.BusStop{Name: "North Yard"}},
		{Name: "Ravi", Phone: "9123456780", Year: models.YearIV},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStudentsWorkbook(&buf, students))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"Asha", "0876543210", "II", "North Yard"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 3)
	assert.Equal(t, []string{"Ravi", "9123456780", "IV"}, rows[2][:3])
	if len(rows[2]) == 4 {
		assert.Empty(t, rows[2][3], "student without a joined stop exports an empty cell")
	}
}

func buildImportWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestImportBusStopsFromExcel(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		file := buildImportWorkbook(t, [][]interface{}{
			{"Name", "Location"},
			{"Central Station", "Park Town"},
			{"", "orphan location"},
			{"North Yard"},
		})

		report, err := ImportBusStopsFromExcel(ctx, s, file, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Imported)
		assert.Equal(t, []int{3}, report.SkippedRows)

		stops, err := s.ListBusStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 2)
		assert.Equal(t, "Park Town", stops[0].LocationOrEmpty())
		assert.Nil(t, stops[1].Location)
	})
}

func TestImportBusStopsFromExcel_NotAWorkbook(t *testing.T) {
	_, err := ImportBusStopsFromExcel(context.Background(), newSQLStore(t), bytes.NewBufferString("not xlsx"), nil)
	assert.Error(t, err)
}

// concurrentEdit rewrites a bus stop from a second connection the first time
// the student id counter is incremented, between WATCH and EXEC.
type concurrentEdit struct {
	other *redis.Client
	key   string
	fired bool
}

func (h *concurrentEdit) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	if cmd.Name() == "incr" && !h.fired {
		h.fired = true
		if err := h.other.HSet(ctx, h.key, "location", "Moved").Err(); err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func (h *concurrentEdit) AfterProcess(context.Context, redis.Cmder) error { return nil }

func (h *concurrentEdit) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *concurrentEdit) AfterProcessPipeline(context.Context, []redis.Cmder) error { return nil }

func TestRedisService_CreateStudentWatchesBusStop(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = other.Close() })
	s := NewRedisService(client, nil)
	t.Cleanup(func() { _ = s.Close() })

	stop, err := s.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "Central Park"})
	require.NoError(t, err)

	hook := &concurrentEdit{other: other, key: getBusStopInfoKey(stop.ID)}
	client.AddHook(hook)

	student, err := s.CreateStudent(ctx, models.CreateStudentRequest{
		Name: "Asha", Phone: "9876543210", Year: models.YearI, BusStopID: stop.ID,
	})
	require.NoError(t, err)
	require.True(t, hook.fired)

	assert.Equal(t, "Moved", student.BusStop.LocationOrEmpty(), "retry reads the bus stop as committed")
	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1, "the aborted attempt wrote nothing")
	assert.Equal(t, student.ID, students[0].ID)
}

func TestRedisService_CreateStudentStopRemoved(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisService(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	t.Cleanup(func() { _ = s.Close() })

	stop, err := s.CreateBusStop(ctx, models.CreateBusStopRequest{Name: "Central Park"})
	require.NoError(t, err)
	mr.Del(getBusStopInfoKey(stop.ID))

	_, err = s.CreateStudent(ctx, models.CreateStudentRequest{
		Name: "Asha", Phone: "9876543210", Year: models.YearI, BusStopID: stop.ID,
	})
	require.ErrorIs(t, err, ErrBusStopNotFound)
	assert.False(t, mr.Exists(studentSeqKey), "no id is allocated for a rejected student")
}
