package frames

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quillaja/sph"
)

/*
one row per particle per frame. sqlite allows only one writer at a time, so
a single consumer goroutine is all a SQLSink needs.
*/

const schema = `
CREATE TABLE IF NOT EXISTS particles (
	frame    INTEGER,
	id       INTEGER, -- particle index
	simtime  DOUBLE PRECISION,
	x        DOUBLE PRECISION,
	y        DOUBLE PRECISION,
	z        DOUBLE PRECISION,
	vx       DOUBLE PRECISION,
	vy       DOUBLE PRECISION,
	vz       DOUBLE PRECISION,
	density  DOUBLE PRECISION,
	pressure DOUBLE PRECISION);
`

const indices = `
CREATE INDEX IF NOT EXISTS idx_frame ON particles (frame, id);
CREATE INDEX IF NOT EXISTS idx_id ON particles (id);
`

const columns = 11

// SQLSink writes frames to a particles table, one transaction per frame.
// It works with the sqlite3 and postgres drivers.
type SQLSink struct {
	db     *sql.DB
	driver string
	insert string
	query  string
}

// placeholders returns the bind parameters of driver for n values.
func placeholders(driver string, n int) string {
	ps := make([]string, n)
	for i := range ps {
		if driver == "postgres" {
			ps[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

// OpenSQL opens dsn with driver ("sqlite3" or "postgres") and prepares the
// particles table. For sqlite3, dsn is a file name which must not already
// exist.
func OpenSQL(driver, dsn string) (*SQLSink, error) {
	switch driver {
	case "sqlite3":
		if _, err := os.Stat(dsn); err == nil {
			return nil, fmt.Errorf("%s exists", dsn)
		}
		dsn = "file:" + dsn + "?_journal_mode=OFF&_synchronous=OFF"
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	sink, err := NewSQLSink(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// NewSQLSink creates the particles table in db if needed. The sink owns db
// and closes it on Close.
func NewSQLSink(db *sql.DB, driver string) (*SQLSink, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating particles table: %w", err)
	}
	frameParam := "?"
	if driver == "postgres" {
		frameParam = "$1"
	}
	return &SQLSink{
		db:     db,
		driver: driver,
		insert: `INSERT INTO particles VALUES (` + placeholders(driver, columns) + `);`,
		query: `SELECT id, simtime, x, y, z, vx, vy, vz, density, pressure
			FROM particles WHERE frame = ` + frameParam + ` ORDER BY id ASC;`,
	}, nil
}

// Write inserts every particle of job in a single transaction.
func (s *SQLSink) Write(job *Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(s.insert)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for id, p := range job.Particles {
		_, err = stmt.Exec(
			job.Frame,
			id,
			job.Time,
			p.Position[0], p.Position[1], p.Position[2],
			p.Velocity[0], p.Velocity[1], p.Velocity[2],
			p.Density,
			p.Pressure)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("frame %d particle %d: %w", job.Frame, id, err)
		}
	}
	return tx.Commit()
}

// CreateIndices adds the lookup indices. Call it after the last Write.
func (s *SQLSink) CreateIndices() error {
	for _, stmt := range strings.Split(strings.TrimSpace(indices), "\n") {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Frame reads back one frame. Fields that are not stored (force, boundary)
// are zero.
func (s *SQLSink) Frame(frame int) (*Job, error) {
	rows, err := s.db.Query(s.query, frame)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	job := &Job{Frame: frame}
	for rows.Next() {
		var (
			id  int
			p   sph.Particle
			pos mgl64.Vec3
			vel mgl64.Vec3
		)
		err := rows.Scan(&id, &job.Time,
			&pos[0], &pos[1], &pos[2],
			&vel[0], &vel[1], &vel[2],
			&p.Density, &p.Pressure)
		if err != nil {
			return nil, err
		}
		p.Position, p.Velocity = pos, vel
		job.Particles = append(job.Particles, p)
	}
	return job, rows.Err()
}

// Close closes the database.
func (s *SQLSink) Close() error { return s.db.Close() }
