package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/repository"
)

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

// Create inserts the match and claims both participants atomically. The
// per-user updates are guarded on current_state = 'available', so a lost
// race rolls the whole transaction back and no user is left referencing a
// match the counterpart does not also reference.
func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO matches (
			id, user1_id, user2_id, compatibility_score, status,
			pinned_by_user1, pinned_by_user2, message_count,
			video_unlocked, feedback_sent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err = tx.QueryRowContext(
		ctx, insert,
		match.ID, match.User1ID, match.User2ID, match.CompatibilityScore, match.Status,
		match.PinnedByUser1, match.PinnedByUser2, match.MessageCount,
		match.VideoUnlocked, match.FeedbackSent,
	).Scan(&match.CreatedAt)
	if err != nil {
		return err
	}

	claim := `
		UPDATE users
		SET current_state = $1, match_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND current_state = $4
	`
	for _, userID := range []string{match.User1ID, match.User2ID} {
		result, err := tx.ExecContext(ctx, claim, domain.UserStateMatched, match.ID, userID, domain.UserStateAvailable)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s", domain.ErrUserNotAvailable, userID)
		}
	}

	return tx.Commit()
}

const matchColumns = `
	id, user1_id, user2_id, compatibility_score, status,
	pinned_by_user1, pinned_by_user2, unpinned_by, unpinned_at,
	message_count, first_message_at, video_unlocked, feedback_sent, created_at
`

func scanMatch(row interface{ Scan(...interface{}) error }) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(
		&m.ID, &m.User1ID, &m.User2ID, &m.CompatibilityScore, &m.Status,
		&m.PinnedByUser1, &m.PinnedByUser2, &m.UnpinnedBy, &m.UnpinnedAt,
		&m.MessageCount, &m.FirstMessageAt, &m.VideoUnlocked, &m.FeedbackSent, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *matchRepository) GetActiveForUser(ctx context.Context, userID string) (*domain.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, userID, domain.MatchStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoActiveMatch
		}
		return nil, err
	}
	return match, nil
}

func (r *matchRepository) IncrementMessageCount(ctx context.Context, matchID string, at time.Time) (*domain.Match, error) {
	query := `
		UPDATE matches
		SET message_count = message_count + 1,
		    first_message_at = COALESCE(first_message_at, $2)
		WHERE id = $1 AND status = $3
		RETURNING ` + matchColumns
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, matchID, at, domain.MatchStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotActive
		}
		return nil, err
	}
	return match, nil
}

func (r *matchRepository) SetVideoUnlocked(ctx context.Context, matchID string) error {
	query := `
		UPDATE matches
		SET video_unlocked = TRUE
		WHERE id = $1 AND status = $2 AND video_unlocked = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, matchID, domain.MatchStatusActive)
	return err
}

func (r *matchRepository) End(ctx context.Context, matchID, unpinnedBy string, at time.Time) error {
	query := `
		UPDATE matches
		SET status = $1, unpinned_by = $2, unpinned_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, domain.MatchStatusEnded, unpinnedBy, at, matchID, domain.MatchStatusActive)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotActive
	}
	return nil
}

func (r *matchRepository) MarkFeedbackSent(ctx context.Context, matchID string) error {
	query := `UPDATE matches SET feedback_sent = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, matchID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}
