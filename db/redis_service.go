package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"busreg-server-go/models"
)

const (
	busStopsKey       = "busStops"       // Sorted set: all bus stop IDs, scored by ID
	busStopInfoPrefix = "busStop:"       // Hash prefix: busStop:{id} -> bus stop details
	busStopSeqKey     = "busStop:nextId" // Counter for bus stop IDs
	studentsKey       = "students"       // Sorted set: all student IDs, scored by ID
	studentInfoPrefix = "student:"       // Hash prefix: student:{id} -> student details
	studentSeqKey     = "student:nextId" // Counter for student IDs
)

// RedisService stores bus stops and students in Redis
type RedisService struct {
	Client *redis.Client
	log    *zap.Logger
}

var _ Store = (*RedisService)(nil)

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, log *zap.Logger) *RedisService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisService{
		Client: client,
		log:    log,
	}
}

// Helper to generate bus stop info key
func getBusStopInfoKey(id int64) string {
	return busStopInfoPrefix + strconv.FormatInt(id, 10)
}

// Helper to generate student info key
func getStudentInfoKey(id int64) string {
	return studentInfoPrefix + strconv.FormatInt(id, 10)
}

// --- Bus Stop Operations ---

// CreateBusStop assigns the next ID and stores the bus stop
func (s *RedisService) CreateBusStop(ctx context.Context, req models.CreateBusStopRequest) (*models.BusStop, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: bus stop name cannot be empty", ErrInvalid)
	}

	id, err := s.Client.Incr(ctx, busStopSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bus stop id: %w", err)
	}

	stop := models.BusStop{ID: id, Name: name, Location: trimmedOrNil(req.Location)}
	fields := map[string]interface{}{
		"id":   id,
		"name": stop.Name,
	}
	if stop.Location != nil {
		fields["location"] = *stop.Location
	}

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, getBusStopInfoKey(id), fields)
	pipe.ZAdd(ctx, busStopsKey, &redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to add bus stop to Redis: %w", err)
	}
	s.log.Info("added bus stop", zap.Int64("id", id), zap.String("name", stop.Name))
	return &stop, nil
}

// GetBusStop retrieves a bus stop by its ID
func (s *RedisService) GetBusStop(ctx context.Context, id int64) (*models.BusStop, error) {
	data, err := s.Client.HGetAll(ctx, getBusStopInfoKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus stop %d from Redis: %w", id, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return busStopFromHash(data)
}

// ListBusStops retrieves all bus stops ordered by ID
func (s *RedisService) ListBusStops(ctx context.Context) ([]models.BusStop, error) {
	ids, err := s.Client.ZRange(ctx, busStopsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus stop ids from Redis: %w", err)
	}
	hashes, err := s.fetchHashes(ctx, busStopInfoPrefix, ids)
	if err != nil {
		return nil, err
	}

	stops := make([]models.BusStop, 0, len(hashes))
	for _, data := range hashes {
		stop, err := busStopFromHash(data)
		if err != nil {
			// Skip corrupt entries but keep the rest of the directory usable
			s.log.Warn("skipping malformed bus stop", zap.Error(err))
			continue
		}
		stops = append(stops, *stop)
	}
	return stops, nil
}

// --- Student Operations ---

// maxTxRetries bounds optimistic retries when a watched key changes mid-transaction
const maxTxRetries = 3

// CreateStudent stores a student after checking the bus stop reference. The
// bus stop key is WATCHed, so the write aborts if the stop changes between the
// check and EXEC.
func (s *RedisService) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if errs := req.FieldErrors(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, errs)
	}

	stopKey := getBusStopInfoKey(req.BusStopID)
	var student models.Student
	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, stopKey).Result()
		if err != nil {
			return fmt.Errorf("failed to get bus stop %d from Redis: %w", req.BusStopID, err)
		}
		if len(data) == 0 {
			return ErrBusStopNotFound
		}
		stop, err := busStopFromHash(data)
		if err != nil {
			return err
		}

		id, err := tx.Incr(ctx, studentSeqKey).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate student id: %w", err)
		}
		student = models.Student{
			ID:        id,
			Name:      strings.TrimSpace(req.Name),
			Phone:     req.Phone,
			Year:      req.Year,
			BusStopID: stop.ID,
			BusStop:   stop,
			CreatedAt: time.Now().UTC(),
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, getStudentInfoKey(id), map[string]interface{}{
				"id":        id,
				"name":      student.Name,
				"phone":     student.Phone,
				"year":      string(student.Year),
				"busStopId": student.BusStopID,
				"createdAt": student.CreatedAt.Format(time.RFC3339Nano),
			})
			pipe.ZAdd(ctx, studentsKey, &redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.Client.Watch(ctx, txf, stopKey)
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debug("bus stop changed during student insert, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			if errors.Is(err, ErrBusStopNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to add student to Redis: %w", err)
		}
		s.log.Debug("added student", zap.Int64("id", student.ID), zap.Int64("busStopId", student.BusStopID))
		return &student, nil
	}
	return nil, fmt.Errorf("failed to add student to Redis: %w", redis.TxFailedErr)
}

// ListStudents retrieves all students with their bus stop joined
func (s *RedisService) ListStudents(ctx context.Context) ([]models.Student, error) {
	ids, err := s.Client.ZRange(ctx, studentsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get student ids from Redis: %w", err)
	}
	hashes, err := s.fetchHashes(ctx, studentInfoPrefix, ids)
	if err != nil {
		return nil, err
	}

	stops := make(map[int64]*models.BusStop)
	students := make([]models.Student, 0, len(hashes))
	for _, data := range hashes {
		student, err := studentFromHash(data)
		if err != nil {
			s.log.Warn("skipping malformed student", zap.Error(err))
			continue
		}
		stop, ok := stops[student.BusStopID]
		if !ok {
			stop, err = s.GetBusStop(ctx, student.BusStopID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			stops[student.BusStopID] = stop
		}
		student.BusStop = stop
		students = append(students, *student)
	}
	return students, nil
}

// Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Close releases the connection pool
func (s *RedisService) Close() error {
	return s.Client.Close()
}

// fetchHashes loads prefix+id hashes in one round trip, skipping missing keys
func (s *RedisService) fetchHashes(ctx context.Context, prefix string, ids []string) ([]map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, prefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to fetch %s records from Redis: %w", strings.TrimSuffix(prefix, ":"), err)
	}

	out := make([]map[string]string, 0, len(cmds))
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			s.log.Warn("index points at missing record", zap.String("key", prefix+ids[i]))
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

func busStopFromHash(data map[string]string) (*models.BusStop, error) {
	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad bus stop id %q: %w", data["id"], err)
	}
	stop := &models.BusStop{ID: id, Name: data["name"]}
	if loc, ok := data["location"]; ok {
		stop.Location = &loc
	}
	return stop, nil
}

func studentFromHash(data map[string]string) (*models.Student, error) {
	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad student id %q: %w", data["id"], err)
	}
	stopID, err := strconv.ParseInt(data["busStopId"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad bus stop reference %q on student %d: %w", data["busStopId"], id, err)
	}
	student := &models.Student{
		ID:        id,
		Name:      data["name"],
		Phone:     data["phone"],
		Year:      models.Year(data["year"]),
		BusStopID: stopID,
	}
	if ts, ok := data["createdAt"]; ok {
		// A bad timestamp is not worth dropping the record over
		student.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return student, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// --- Utility ---

// RedisOptions selects the Redis server and database
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// InitializeRedisClient creates a Redis client and checks the connection
func InitializeRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
