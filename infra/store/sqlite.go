// Package store provides durable and in-memory implementations of the
// storage contracts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vertiops/evtol-ops/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS flights (
    flight_id TEXT PRIMARY KEY,
    origin TEXT NOT NULL,
    destination TEXT NOT NULL,
    path TEXT,
    energy_consumption REAL,
    status TEXT CHECK(status IN ('Scheduled', 'In Progress', 'Completed', 'Cancelled')),
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS weather (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    time INTEGER NOT NULL,
    location TEXT NOT NULL,
    condition TEXT CHECK(condition IN ('Clear', 'Rain', 'Snow', 'Fog', 'Storm')),
    risk_level TEXT CHECK(risk_level IN ('Low', 'Medium', 'High')),
    temperature REAL,
    wind_speed REAL
);
CREATE TABLE IF NOT EXISTS evtols (
    id TEXT PRIMARY KEY,
    battery_status REAL CHECK(battery_status >= 0 AND battery_status <= 100),
    maintenance_status TEXT CHECK(maintenance_status IN ('OK', 'Warning', 'Critical')),
    usage_count INTEGER DEFAULT 0,
    last_maintenance INTEGER,
    model_type TEXT,
    max_range REAL
);
CREATE TABLE IF NOT EXISTS traffic (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    route TEXT NOT NULL,
    congestion_level TEXT CHECK(congestion_level IN ('Low', 'Medium', 'High')),
    timestamp INTEGER NOT NULL,
    vehicle_count INTEGER,
    average_speed REAL
);
CREATE TABLE IF NOT EXISTS flight_vehicles (
    flight_id TEXT PRIMARY KEY REFERENCES flights(flight_id),
    vehicle_id TEXT NOT NULL REFERENCES evtols(id)
);
CREATE INDEX IF NOT EXISTS idx_flights_status ON flights(status);
CREATE INDEX IF NOT EXISTS idx_weather_time ON weather(time);
CREATE INDEX IF NOT EXISTS idx_traffic_route ON traffic(route);
`

// SQLiteStore persists the four operational tables in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) InsertVehicle(ctx context.Context, v model.EVTOL) error {
	if err := v.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO evtols
        (id, battery_status, maintenance_status, usage_count, last_maintenance, model_type, max_range)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.BatteryLevel, string(v.Maintenance), v.UsageCount, unixOrZero(v.LastMaintenance), v.ModelType, v.MaxRange)
	return err
}

func (s *SQLiteStore) Vehicle(ctx context.Context, id string) (model.EVTOL, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, battery_status, maintenance_status,
        usage_count, last_maintenance, model_type, max_range FROM evtols WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EVTOL{}, &model.NotFoundError{Kind: "vehicle", ID: id}
	}
	return v, err
}

func (s *SQLiteStore) Vehicles(ctx context.Context) ([]model.EVTOL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, battery_status, maintenance_status,
        usage_count, last_maintenance, model_type, max_range FROM evtols ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.EVTOL
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetMaintenance(ctx context.Context, id string, status model.MaintenanceStatus, ts time.Time) error {
	var res sql.Result
	var err error
	if ts.IsZero() {
		res, err = s.db.ExecContext(ctx, `UPDATE evtols SET maintenance_status = ? WHERE id = ?`, string(status), id)
	} else {
		res, err = s.db.ExecContext(ctx, `UPDATE evtols SET maintenance_status = ?, last_maintenance = ? WHERE id = ?`,
			string(status), ts.Unix(), id)
	}
	if err != nil {
		return err
	}
	return requireRow(res, "vehicle", id)
}

func (s *SQLiteStore) IncrementUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE evtols SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "vehicle", id)
}

func (s *SQLiteStore) InsertFlight(ctx context.Context, f model.Flight) error {
	if err := f.Validate(); err != nil {
		return err
	}
	path, err := f.Path.Encode()
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO flights
        (flight_id, origin, destination, path, energy_consumption, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.FlightID, f.Origin, f.Destination, path, f.EnergyConsumption, string(f.Status), f.CreatedAt.Unix()); err != nil {
		return err
	}
	if f.VehicleID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO flight_vehicles (flight_id, vehicle_id) VALUES (?, ?)`,
			f.FlightID, f.VehicleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Flight(ctx context.Context, id string) (model.Flight, error) {
	row := s.db.QueryRowContext(ctx, `SELECT f.flight_id, f.origin, f.destination, f.path,
        f.energy_consumption, f.status, f.created_at, COALESCE(r.vehicle_id, '')
        FROM flights f LEFT JOIN flight_vehicles r ON r.flight_id = f.flight_id
        WHERE f.flight_id = ?`, id)
	f, err := scanFlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Flight{}, &model.NotFoundError{Kind: "flight", ID: id}
	}
	return f, err
}

func (s *SQLiteStore) SetFlightStatus(ctx context.Context, id string, status model.FlightStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE flights SET status = ? WHERE flight_id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireRow(res, "flight", id)
}

func (s *SQLiteStore) FlightsByStatus(ctx context.Context, status model.FlightStatus) ([]model.Flight, error) {
	return s.queryFlights(ctx, `WHERE f.status = ?`, string(status))
}

func (s *SQLiteStore) FlightsSince(ctx context.Context, since time.Time) ([]model.Flight, error) {
	return s.queryFlights(ctx, `WHERE f.created_at >= ?`, since.Unix())
}

func (s *SQLiteStore) queryFlights(ctx context.Context, where string, arg any) ([]model.Flight, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT f.flight_id, f.origin, f.destination, f.path,
        f.energy_consumption, f.status, f.created_at, COALESCE(r.vehicle_id, '')
        FROM flights f LEFT JOIN flight_vehicles r ON r.flight_id = f.flight_id `+
		where+` ORDER BY f.created_at DESC, f.flight_id DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Flight
	var pathErrs []error
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			var mp *model.MalformedPathError
			if errors.As(err, &mp) {
				// Surface the parse failure without dropping the row.
				pathErrs = append(pathErrs, fmt.Errorf("flight %s: %w", f.FlightID, mp))
			} else {
				return nil, err
			}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, errors.Join(pathErrs...)
}

func (s *SQLiteStore) AppendWeather(ctx context.Context, r model.WeatherReading) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO weather
        (time, location, condition, risk_level, temperature, wind_speed)
        VALUES (?, ?, ?, ?, ?, ?)`,
		r.Time.Unix(), r.Location, string(r.Condition), string(r.RiskLevel), r.Temperature, r.WindSpeed)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) WeatherWindow(ctx context.Context, from, to time.Time) ([]model.WeatherReading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, time, location, condition, risk_level,
        temperature, wind_speed FROM weather WHERE time >= ? AND time <= ? ORDER BY time DESC`,
		from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.WeatherReading
	for rows.Next() {
		var r model.WeatherReading
		var ts int64
		var cond, level string
		if err := rows.Scan(&r.ID, &ts, &r.Location, &cond, &level, &r.Temperature, &r.WindSpeed); err != nil {
			return nil, err
		}
		r.Time = time.Unix(ts, 0).UTC()
		r.Condition = model.Condition(cond)
		r.RiskLevel = model.RiskLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendTraffic(ctx context.Context, r model.TrafficReading) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO traffic
        (route, congestion_level, timestamp, vehicle_count, average_speed)
        VALUES (?, ?, ?, ?, ?)`,
		r.Route, string(r.Congestion), r.Timestamp.Unix(), r.VehicleCount, r.AverageSpeed)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) TrafficWindow(ctx context.Context, from, to time.Time) ([]model.TrafficReading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, route, congestion_level, timestamp,
        vehicle_count, average_speed FROM traffic WHERE timestamp >= ? AND timestamp <= ?
        ORDER BY timestamp DESC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.TrafficReading
	for rows.Next() {
		var r model.TrafficReading
		var ts int64
		var level string
		if err := rows.Scan(&r.ID, &r.Route, &level, &ts, &r.VehicleCount, &r.AverageSpeed); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		r.Congestion = model.CongestionLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row scanner) (model.EVTOL, error) {
	var v model.EVTOL
	var status string
	var maint int64
	if err := row.Scan(&v.ID, &v.BatteryLevel, &status, &v.UsageCount, &maint, &v.ModelType, &v.MaxRange); err != nil {
		return model.EVTOL{}, err
	}
	v.Maintenance = model.MaintenanceStatus(status)
	if maint != 0 {
		v.LastMaintenance = time.Unix(maint, 0).UTC()
	}
	return v, nil
}

func scanFlight(row scanner) (model.Flight, error) {
	var f model.Flight
	var path, status string
	var created int64
	if err := row.Scan(&f.FlightID, &f.Origin, &f.Destination, &path, &f.EnergyConsumption, &status, &created, &f.VehicleID); err != nil {
		return model.Flight{}, err
	}
	f.Status = model.FlightStatus(status)
	f.CreatedAt = time.Unix(created, 0).UTC()
	p, err := model.ParsePath(path)
	if err != nil {
		return f, err
	}
	f.Path = p
	return f, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
