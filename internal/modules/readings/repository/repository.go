package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"airwatch-server/internal/modules/readings/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-latest-reading.sql
var getLatestReadingSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/get-readings-range.sql
var getReadingsRangeSQL string

type ReadingRepository interface {
	// InsertReading persists r and returns the assigned row id. The insert is
	// a single statement, so concurrent callers never interleave a record.
	InsertReading(r types.Reading) (int64, error)
	// GetLatestReading returns the reading with the maximum timestamp, or nil
	// when the store is empty.
	GetLatestReading() (*types.Reading, error)
	GetReadings(limit int, offset int) ([]types.Reading, error)
	CountReadings() (int, error)
	// GetReadingsRange returns readings with from <= ts <= to, newest first.
	GetReadingsRange(from time.Time, to time.Time) ([]types.Reading, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(reading types.Reading) (int64, error) {
	res, err := r.db.Exec(insertReadingSQL,
		reading.Timestamp.UTC().Format(time.RFC3339Nano),
		reading.Temperature,
		reading.Humidity,
		reading.VOCIndex,
		reading.VOCRaw,
		reading.PM1,
		reading.PM25,
		reading.PM10,
		reading.Rainfall,
		reading.WindSpeed,
		reading.WindDirection,
		reading.Location.Latitude,
		reading.Location.Longitude,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert reading id: %w", err)
	}
	return id, nil
}

func (r *repositoryImpl) GetLatestReading() (*types.Reading, error) {
	rows, err := r.db.Query(getLatestReadingSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest reading rows", "error", err)
		}
	}()
	out, err := scanReadings(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *repositoryImpl) GetReadings(limit int, offset int) ([]types.Reading, error) {
	rows, err := r.db.Query(getReadingsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) CountReadings() (int, error) {
	var n int
	err := r.db.QueryRow(getReadingsCountSQL).Scan(&n)
	return n, err
}

func (r *repositoryImpl) GetReadingsRange(from time.Time, to time.Time) ([]types.Reading, error) {
	fromStr := from.UTC().Format(time.RFC3339Nano)
	toStr := to.UTC().Format(time.RFC3339Nano)
	rows, err := r.db.Query(getReadingsRangeSQL, fromStr, toStr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close range rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	var out []types.Reading
	for rows.Next() {
		var rec types.Reading
		var ts string
		if err := rows.Scan(
			&rec.ID, &ts,
			&rec.Temperature, &rec.Humidity,
			&rec.VOCIndex, &rec.VOCRaw,
			&rec.PM1, &rec.PM25, &rec.PM10,
			&rec.Rainfall, &rec.WindSpeed, &rec.WindDirection,
			&rec.Location.Latitude, &rec.Location.Longitude,
		); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, ts)
			if err2 != nil {
				return nil, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
			}
		}
		rec.Timestamp = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
