// Package sqlite stores schedules and pets in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/meonghae/profile-service/server/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS pets (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_email TEXT NOT NULL,
	name        TEXT NOT NULL,
	species     TEXT NOT NULL DEFAULT '',
	birth_date  TIMESTAMP,
	created     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS schedules (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_email       TEXT NOT NULL,
	pet_id            INTEGER NOT NULL REFERENCES pets(id),
	pet_name          TEXT NOT NULL DEFAULT '',
	text              TEXT NOT NULL DEFAULT '',
	schedule_time     TIMESTAMP NOT NULL,
	schedule_end_time TIMESTAMP NOT NULL,
	has_repeat        BOOLEAN NOT NULL DEFAULT 0,
	schedule_type     INTEGER NOT NULL DEFAULT 0,
	cycle_type        INTEGER NOT NULL DEFAULT 0,
	cycle             INTEGER NOT NULL DEFAULT 0,
	cycle_count       INTEGER NOT NULL DEFAULT 0,
	created           TIMESTAMP NOT NULL,
	modified          TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schedules_owner ON schedules(owner_email);
`

const scheduleColumns = `id, owner_email, pet_id, pet_name, text, schedule_time, schedule_end_time,
	has_repeat, schedule_type, cycle_type, cycle, cycle_count, created, modified`

type scheduleRow struct {
	ID              int64     `db:"id"`
	OwnerEmail      string    `db:"owner_email"`
	PetID           int64     `db:"pet_id"`
	PetName         string    `db:"pet_name"`
	Text            string    `db:"text"`
	ScheduleTime    time.Time `db:"schedule_time"`
	ScheduleEndTime time.Time `db:"schedule_end_time"`
	HasRepeat       bool      `db:"has_repeat"`
	ScheduleType    int       `db:"schedule_type"`
	CycleType       int       `db:"cycle_type"`
	Cycle           int       `db:"cycle"`
	CycleCount      int       `db:"cycle_count"`
	Created         time.Time `db:"created"`
	Modified        time.Time `db:"modified"`
}

type petRow struct {
	ID         int64        `db:"id"`
	OwnerEmail string       `db:"owner_email"`
	Name       string       `db:"name"`
	Species    string       `db:"species"`
	BirthDate  sql.NullTime `db:"birth_date"`
	Created    time.Time    `db:"created"`
}

// Store implements storage.Storage on SQLite. Times are written in UTC and
// returned in the store's location.
type Store struct {
	db     *sqlx.DB
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

var _ storage.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLocation sets the location times are returned in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		s.loc = loc
	}
}

// Open connects to the database at path and creates the schema. Use
// ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if path == ":memory:" {
		// every new connection would see an empty database
		db.SetMaxOpenConns(1)
	}

	s := New(db, opts...)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Info("database ready", "path", path)
	return s, nil
}

// New wraps an existing connection. The schema must already exist.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		loc:    time.UTC,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) toSchedule(r scheduleRow) storage.Schedule {
	return storage.Schedule{
		ID:              r.ID,
		OwnerEmail:      r.OwnerEmail,
		PetID:           r.PetID,
		PetName:         r.PetName,
		Text:            r.Text,
		ScheduleTime:    r.ScheduleTime.In(s.loc),
		ScheduleEndTime: r.ScheduleEndTime.In(s.loc),
		HasRepeat:       r.HasRepeat,
		Type:            storage.ScheduleType(r.ScheduleType),
		CycleType:       storage.CycleType(r.CycleType),
		Cycle:           r.Cycle,
		CycleCount:      r.CycleCount,
		Created:         r.Created.In(s.loc),
		Modified:        r.Modified.In(s.loc),
	}
}

func fromSchedule(sched *storage.Schedule) scheduleRow {
	return scheduleRow{
		ID:              sched.ID,
		OwnerEmail:      sched.OwnerEmail,
		PetID:           sched.PetID,
		PetName:         sched.PetName,
		Text:            sched.Text,
		ScheduleTime:    sched.ScheduleTime.UTC(),
		ScheduleEndTime: sched.ScheduleEndTime.UTC(),
		HasRepeat:       sched.HasRepeat,
		ScheduleType:    int(sched.Type),
		CycleType:       int(sched.CycleType),
		Cycle:           sched.Cycle,
		CycleCount:      sched.CycleCount,
		Created:         sched.Created.UTC(),
		Modified:        sched.Modified.UTC(),
	}
}

func (s *Store) toSchedules(rows []scheduleRow) []storage.Schedule {
	if len(rows) == 0 {
		return nil
	}
	out := make([]storage.Schedule, len(rows))
	for i, r := range rows {
		out[i] = s.toSchedule(r)
	}
	return out
}

// mapError turns driver errors into storage errors.
func mapError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &storage.Error{Type: storage.ErrNotFound, Message: what + " not found"}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return &storage.Error{Type: storage.ErrAlreadyExists, Message: what + " already exists", Err: err}
		}
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "invalid " + what, Err: err}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Schedule operations

func (s *Store) GetSchedule(ctx context.Context, id int64) (*storage.Schedule, error) {
	var row scheduleRow
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapError(err, "schedule")
	}
	sched := s.toSchedule(row)
	return &sched, nil
}

func (s *Store) ListSchedulesByOwner(ctx context.Context, ownerEmail string) ([]storage.Schedule, error) {
	var rows []scheduleRow
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE owner_email = ? ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &rows, query, ownerEmail); err != nil {
		return nil, mapError(err, "schedules")
	}
	return s.toSchedules(rows), nil
}

func (s *Store) ListSchedulesByIDs(ctx context.Context, ownerEmail string, ids []int64) ([]storage.Schedule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+scheduleColumns+` FROM schedules
		WHERE owner_email = ? AND id IN (?) ORDER BY id ASC`, ownerEmail, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []scheduleRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, mapError(err, "schedules")
	}
	return s.toSchedules(rows), nil
}

func (s *Store) SearchSchedules(ctx context.Context, ownerEmail, keyword string) ([]storage.Schedule, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE owner_email = ? AND (text LIKE ? ESCAPE '\' OR pet_name LIKE ? ESCAPE '\')
		ORDER BY schedule_time ASC, id ASC`

	var rows []scheduleRow
	if err := s.db.SelectContext(ctx, &rows, query, ownerEmail, pattern, pattern); err != nil {
		return nil, mapError(err, "schedules")
	}
	return s.toSchedules(rows), nil
}

func (s *Store) CreateSchedule(ctx context.Context, sched *storage.Schedule) error {
	if sched.OwnerEmail == "" {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "schedule owner is required"}
	}
	now := s.now()
	sched.Created = now
	sched.Modified = now

	query := `INSERT INTO schedules (owner_email, pet_id, pet_name, text, schedule_time, schedule_end_time,
			has_repeat, schedule_type, cycle_type, cycle, cycle_count, created, modified)
		VALUES (:owner_email, :pet_id, :pet_name, :text, :schedule_time, :schedule_end_time,
			:has_repeat, :schedule_type, :cycle_type, :cycle, :cycle_count, :created, :modified)`

	result, err := s.db.NamedExecContext(ctx, query, fromSchedule(sched))
	if err != nil {
		return mapError(err, "schedule")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read schedule id: %w", err)
	}
	sched.ID = id
	s.logger.Debug("schedule inserted", "schedule_id", id, "owner", sched.OwnerEmail)
	return nil
}

func (s *Store) UpdateSchedule(ctx context.Context, sched *storage.Schedule) error {
	sched.Modified = s.now()

	query := `UPDATE schedules SET
			pet_id = :pet_id, pet_name = :pet_name, text = :text,
			schedule_time = :schedule_time, schedule_end_time = :schedule_end_time,
			has_repeat = :has_repeat, schedule_type = :schedule_type, cycle_type = :cycle_type,
			cycle = :cycle, cycle_count = :cycle_count, modified = :modified
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, query, fromSchedule(sched))
	if err != nil {
		return mapError(err, "schedule")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: "schedule not found"}
	}
	s.logger.Debug("schedule updated", "schedule_id", sched.ID)
	return nil
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "schedule")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: "schedule not found"}
	}
	return nil
}

func (s *Store) DeleteSchedulesByOwner(ctx context.Context, ownerEmail string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE owner_email = ?`, ownerEmail)
	if err != nil {
		return 0, mapError(err, "schedules")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted schedules: %w", err)
	}
	return int(n), nil
}

// Pet operations

func (s *Store) GetPet(ctx context.Context, id int64) (*storage.Pet, error) {
	var row petRow
	query := `SELECT id, owner_email, name, species, birth_date, created FROM pets WHERE id = ?`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapError(err, "pet")
	}

	pet := &storage.Pet{
		ID:         row.ID,
		OwnerEmail: row.OwnerEmail,
		Name:       row.Name,
		Species:    row.Species,
		Created:    row.Created.In(s.loc),
	}
	if row.BirthDate.Valid {
		bd := row.BirthDate.Time.In(s.loc)
		pet.BirthDate = &bd
	}
	return pet, nil
}

func (s *Store) CreatePet(ctx context.Context, pet *storage.Pet) error {
	if pet.OwnerEmail == "" || pet.Name == "" {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "pet owner and name are required"}
	}
	pet.Created = s.now()

	row := petRow{
		OwnerEmail: pet.OwnerEmail,
		Name:       pet.Name,
		Species:    pet.Species,
		Created:    pet.Created.UTC(),
	}
	if pet.BirthDate != nil {
		row.BirthDate = sql.NullTime{Time: pet.BirthDate.UTC(), Valid: true}
	}

	result, err := s.db.NamedExecContext(ctx, `INSERT INTO pets (owner_email, name, species, birth_date, created)
		VALUES (:owner_email, :name, :species, :birth_date, :created)`, row)
	if err != nil {
		return mapError(err, "pet")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read pet id: %w", err)
	}
	pet.ID = id
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
