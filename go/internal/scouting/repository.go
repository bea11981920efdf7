package scouting

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sqlutil"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a connection pool that can also open transactions.
type DB interface {
	DBTX
	sqlutil.TxBeginner
}

type queries struct {
	db DBTX
}

var _ Queries = (*queries)(nil)

// Repository stores war rooms and scouting profiles in Postgres.
type Repository struct {
	*queries
	pool DB
}

var _ ScoutingRepository = (*Repository)(nil)

func NewRepository(pool DB) *Repository {
	return &Repository{
		queries: &queries{db: pool},
		pool:    pool,
	}
}

func (r *Repository) InTx(ctx context.Context, fn func(q Queries) error) error {
	return sqlutil.Run(ctx, r.pool,
		func(tx pgx.Tx) *queries { return &queries{db: tx} },
		func(q *queries) error { return fn(q) },
	)
}

const profileColumns = `id, player_id, team_id,
	show_attribute_1, show_attribute_2, show_attribute_3, show_attribute_4,
	show_attribute_5, show_attribute_6, show_attribute_7, show_attribute_8,
	show_potential`

func scanProfile(row pgx.Row) (models.ScoutingProfile, error) {
	var p models.ScoutingProfile
	err := row.Scan(&p.ID, &p.PlayerID, &p.TeamID,
		&p.ShowAttribute1, &p.ShowAttribute2, &p.ShowAttribute3, &p.ShowAttribute4,
		&p.ShowAttribute5, &p.ShowAttribute6, &p.ShowAttribute7, &p.ShowAttribute8,
		&p.ShowPotential)
	return p, err
}

func (q *queries) EnsureWarRoom(ctx context.Context, teamID, startingPoints int) (models.WarRoom, error) {
	const insert = `
		INSERT INTO war_rooms (team_id, scouting_points)
		VALUES ($1, $2)
		ON CONFLICT (team_id) DO NOTHING
	`
	if _, err := q.db.Exec(ctx, insert, teamID, startingPoints); err != nil {
		return models.WarRoom{}, fmt.Errorf("failed to create war room: %w", err)
	}

	const sel = `
		SELECT team_id, scouting_points, spent_points
		FROM war_rooms
		WHERE team_id = $1
		FOR UPDATE
	`
	var w models.WarRoom
	if err := q.db.QueryRow(ctx, sel, teamID).Scan(&w.TeamID, &w.ScoutingPoints, &w.SpentPoints); err != nil {
		return models.WarRoom{}, fmt.Errorf("failed to read war room: %w", err)
	}
	return w, nil
}

func (q *queries) ListProfiles(ctx context.Context, teamID int) ([]models.ScoutingProfile, error) {
	rows, err := q.db.Query(ctx, `SELECT `+profileColumns+` FROM scouting_profiles WHERE team_id = $1 ORDER BY id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scouting profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.ScoutingProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scouting profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (q *queries) GetProfile(ctx context.Context, profileID int) (models.ScoutingProfile, error) {
	row := q.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM scouting_profiles WHERE id = $1 FOR UPDATE`, profileID)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScoutingProfile{}, fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
	}
	if err != nil {
		return models.ScoutingProfile{}, fmt.Errorf("failed to read scouting profile: %w", err)
	}
	return p, nil
}

func (q *queries) InsertProfile(ctx context.Context, playerID, teamID int) (models.ScoutingProfile, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO scouting_profiles (player_id, team_id)
		VALUES ($1, $2)
		RETURNING `+profileColumns, playerID, teamID)
	p, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.ScoutingProfile{}, fmt.Errorf("%w: %d", ErrAlreadyOnBoard, playerID)
		}
		return models.ScoutingProfile{}, err
	}
	return p, nil
}

func (q *queries) DeleteProfile(ctx context.Context, profileID int) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM scouting_profiles WHERE id = $1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
	}
	return nil
}

func (q *queries) SaveReveal(ctx context.Context, p models.ScoutingProfile, w models.WarRoom, attribute string, cost int) error {
	_, err := q.db.Exec(ctx, `
		UPDATE scouting_profiles SET
			show_attribute_1 = $2, show_attribute_2 = $3, show_attribute_3 = $4, show_attribute_4 = $5,
			show_attribute_5 = $6, show_attribute_6 = $7, show_attribute_7 = $8, show_attribute_8 = $9,
			show_potential = $10
		WHERE id = $1`,
		p.ID,
		p.ShowAttribute1, p.ShowAttribute2, p.ShowAttribute3, p.ShowAttribute4,
		p.ShowAttribute5, p.ShowAttribute6, p.ShowAttribute7, p.ShowAttribute8,
		p.ShowPotential)
	if err != nil {
		return fmt.Errorf("failed to update scouting profile: %w", err)
	}

	if _, err := q.db.Exec(ctx, `UPDATE war_rooms SET spent_points = $2, updated_at = NOW() WHERE team_id = $1`, w.TeamID, w.SpentPoints); err != nil {
		return fmt.Errorf("failed to update war room: %w", err)
	}

	if _, err := q.db.Exec(ctx, `
		INSERT INTO scouting_reveals (profile_id, team_id, attribute, cost)
		VALUES ($1, $2, $3, $4)`, p.ID, w.TeamID, attribute, cost); err != nil {
		return fmt.Errorf("failed to record reveal: %w", err)
	}
	return nil
}
