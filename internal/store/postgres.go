package store

import (
	"context"
	"errors"
	"time"

	"backend-letterwalk/internal/db"

	"github.com/jackc/pgx/v5"
)

// Postgres keeps sessions in route_sessions and check-ins in route_checkins,
// always written together in one transaction.
type Postgres struct {
	db db.Querier
}

func NewPostgres(db db.Querier) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, key Key) (State, error) {
	st := Empty(key)
	var status string
	row := p.db.QueryRow(ctx, `
		SELECT status, started_at, completed_at, elapsed_seconds, updated_at
		FROM route_sessions WHERE user_id=$1 AND route_id=$2
	`, key.UserID, key.RouteID)
	if err := row.Scan(&status, &st.StartedAt, &st.CompletedAt, &st.ElapsedSeconds, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	st.Status = Status(status)

	rows, err := p.db.Query(ctx, `
		SELECT id, waypoint_id, checked_in_at, distance_m, verified, ST_Y(location::geometry), ST_X(location::geometry)
		FROM route_checkins WHERE user_id=$1 AND route_id=$2
		ORDER BY checked_in_at
	`, key.UserID, key.RouteID)
	if err != nil {
		return State{}, err
	}
	defer rows.Close()

	for rows.Next() {
		rec := CheckInRecord{UserID: key.UserID, RouteID: key.RouteID}
		if err := rows.Scan(&rec.ID, &rec.WaypointID, &rec.Timestamp, &rec.DistanceM, &rec.Verified, &rec.Location.Lat, &rec.Location.Lon); err != nil {
			return State{}, err
		}
		st.CheckIns = append(st.CheckIns, rec)
	}
	return st, rows.Err()
}

func (p *Postgres) Save(ctx context.Context, state State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	return p.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO route_sessions (user_id, route_id, status, started_at, completed_at, elapsed_seconds, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (user_id, route_id) DO UPDATE
			SET status=EXCLUDED.status, started_at=EXCLUDED.started_at, completed_at=EXCLUDED.completed_at,
			    elapsed_seconds=EXCLUDED.elapsed_seconds, updated_at=EXCLUDED.updated_at
		`, state.UserID, state.RouteID, string(state.Status), state.StartedAt, state.CompletedAt, state.ElapsedSeconds, state.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM route_checkins WHERE user_id=$1 AND route_id=$2`, state.UserID, state.RouteID); err != nil {
			return err
		}
		for _, rec := range state.CheckIns {
			_, err := tx.Exec(ctx, `
				INSERT INTO route_checkins (id, user_id, route_id, waypoint_id, checked_in_at, distance_m, verified, location)
				VALUES ($1,$2,$3,$4,$5,$6,$7, ST_SetSRID(ST_MakePoint($8,$9), 4326)::geography)
			`, rec.ID, state.UserID, state.RouteID, rec.WaypointID, rec.Timestamp, rec.DistanceM, rec.Verified, rec.Location.Lon, rec.Location.Lat)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) Clear(ctx context.Context, key Key) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM route_checkins WHERE user_id=$1 AND route_id=$2`, key.UserID, key.RouteID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM route_sessions WHERE user_id=$1 AND route_id=$2`, key.UserID, key.RouteID)
		return err
	})
}

func (p *Postgres) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
