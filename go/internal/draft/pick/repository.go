package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mcdev12/draftroom/go/internal/sqlutil"
)

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

type Repository struct {
	pool DB
}

var _ PickRepository = (*Repository)(nil)

func NewRepository(pool DB) *Repository {
	return &Repository{pool: pool}
}

const exportedPickColumns = `draft_id, pick_id, team_id, team, draft_round, draft_number, overall_pick,
	player_id, player_name, player_position, previous_team_id, previous_team, notes,
	promoted, promoted_at, exported_at`

// txQueries binds statements to one transaction.
type txQueries struct {
	tx pgx.Tx
}

func (r *Repository) SaveExport(ctx context.Context, draftID string, teamID int, picks []ExportedPick) error {
	return sqlutil.Run(ctx, r.pool,
		func(tx pgx.Tx) *txQueries { return &txQueries{tx: tx} },
		func(q *txQueries) error {
			for _, p := range picks {
				if err := q.upsertPick(ctx, p); err != nil {
					return err
				}
			}
			_, err := q.tx.Exec(ctx, `
				INSERT INTO draft_exports (draft_id, team_id, pick_count)
				VALUES ($1, $2, $3)
				ON CONFLICT (draft_id, team_id)
				DO UPDATE SET pick_count = EXCLUDED.pick_count, exported_at = NOW()`,
				draftID, teamID, len(picks))
			if err != nil {
				return fmt.Errorf("failed to record team export: %w", err)
			}
			return nil
		},
	)
}

// upsertPick refreshes the ledger columns of a pick and leaves its
// promotion state alone.
func (q *txQueries) upsertPick(ctx context.Context, p ExportedPick) error {
	_, err := q.tx.Exec(ctx, `
		INSERT INTO exported_picks (
			draft_id, pick_id, team_id, team, draft_round, draft_number, overall_pick,
			player_id, player_name, player_position, previous_team_id, previous_team, notes, exported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (draft_id, pick_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			team = EXCLUDED.team,
			player_id = EXCLUDED.player_id,
			player_name = EXCLUDED.player_name,
			player_position = EXCLUDED.player_position,
			previous_team_id = EXCLUDED.previous_team_id,
			previous_team = EXCLUDED.previous_team,
			notes = EXCLUDED.notes,
			exported_at = EXCLUDED.exported_at`,
		p.DraftID,
		p.Pick.ID,
		p.Pick.TeamID,
		sqlutil.ToPgText(p.Pick.Team),
		p.Pick.DraftRound,
		p.Pick.DraftNumber,
		p.OverallPick,
		p.Pick.SelectedPlayerID,
		sqlutil.ToPgText(p.Pick.SelectedPlayerName),
		sqlutil.ToPgText(p.Pick.SelectedPlayerPosition),
		sqlutil.ToPgInt4(p.Pick.PreviousTeamID),
		sqlutil.ToPgText(p.Pick.PreviousTeam),
		sqlutil.ToPgText(p.Pick.Notes),
		p.ExportedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pick %d: %w", p.Pick.ID, err)
	}
	return nil
}

func (r *Repository) ExportedTeams(ctx context.Context, draftID string) (map[int]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT team_id FROM draft_exports WHERE draft_id = $1`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft exports: %w", err)
	}
	defer rows.Close()

	teams := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan draft export: %w", err)
		}
		teams[id] = struct{}{}
	}
	return teams, rows.Err()
}

func (r *Repository) GetExportedPick(ctx context.Context, draftID string, pickID int) (*ExportedPick, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+exportedPickColumns+` FROM exported_picks WHERE draft_id = $1 AND pick_id = $2`, draftID, pickID)
	return scanPickRow(row, draftID, pickID)
}

func (r *Repository) PromotePick(ctx context.Context, draftID string, pickID int) (*ExportedPick, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE exported_picks
		SET promoted = TRUE, promoted_at = NOW()
		WHERE draft_id = $1 AND pick_id = $2 AND NOT promoted
		RETURNING `+exportedPickColumns, draftID, pickID)
	p, err := scanPickRow(row, draftID, pickID)
	if errors.Is(err, ErrPickNotExported) {
		// the row exists but was promoted between the read and this update
		return nil, fmt.Errorf("%w: pick %d", ErrAlreadyPromoted, pickID)
	}
	return p, err
}

func (r *Repository) ListExportedPicks(ctx context.Context, draftID string, teamID int) ([]ExportedPick, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+exportedPickColumns+`
		FROM exported_picks
		WHERE draft_id = $1 AND ($2 = 0 OR team_id = $2)
		ORDER BY overall_pick`, draftID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exported picks: %w", err)
	}
	defer rows.Close()

	picks := []ExportedPick{}
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exported pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func scanPickRow(row pgx.Row, draftID string, pickID int) (*ExportedPick, error) {
	p, err := scanPick(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: draft %s pick %d", ErrPickNotExported, draftID, pickID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read exported pick: %w", err)
	}
	return &p, nil
}

func scanPick(row pgx.Row) (ExportedPick, error) {
	var p ExportedPick
	var team, name, position, prevTeam, notes pgtype.Text
	var prevTeamID pgtype.Int4
	var promotedAt pgtype.Timestamptz
	err := row.Scan(
		&p.DraftID, &p.Pick.ID, &p.Pick.TeamID, &team, &p.Pick.DraftRound, &p.Pick.DraftNumber, &p.OverallPick,
		&p.Pick.SelectedPlayerID, &name, &position, &prevTeamID, &prevTeam, &notes,
		&p.Promoted, &promotedAt, &p.ExportedAt,
	)
	if err != nil {
		return ExportedPick{}, err
	}
	p.Pick.Team = sqlutil.FromPgText(team, "")
	p.Pick.SelectedPlayerName = sqlutil.FromPgText(name, "")
	p.Pick.SelectedPlayerPosition = sqlutil.FromPgText(position, "")
	p.Pick.PreviousTeamID = sqlutil.FromPgInt4(prevTeamID)
	p.Pick.PreviousTeam = sqlutil.FromPgText(prevTeam, "")
	p.Pick.Notes = sqlutil.FromPgText(notes, "")
	p.PromotedAt = sqlutil.FromPgTimestamptz(promotedAt)
	return p, nil
}
