package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, email, name, age, bio, location,
	personality_type, emotional_intelligence_score, attachment_style,
	communication_style, conflict_resolution_style,
	love_languages, values, life_goals, interests,
	response_time_preference, social_energy_level,
	openness_score, conscientiousness_score, extraversion_score,
	agreeableness_score, neuroticism_score,
	current_state, last_active_at, freeze_until, match_id,
	created_at, updated_at
`

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Age, &u.Bio, &u.Location,
		&u.PersonalityType, &u.EmotionalIntelligenceScore, &u.AttachmentStyle,
		&u.CommunicationStyle, &u.ConflictResolutionStyle,
		pq.Array(&u.LoveLanguages), pq.Array(&u.Values), pq.Array(&u.LifeGoals), pq.Array(&u.Interests),
		&u.ResponseTimePreference, &u.SocialEnergyLevel,
		&u.OpennessScore, &u.ConscientiousnessScore, &u.ExtraversionScore,
		&u.AgreeablenessScore, &u.NeuroticismScore,
		&u.CurrentState, &u.LastActiveAt, &u.FreezeUntil, &u.MatchID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	query := `
		INSERT INTO users (
			id, email, name, age, bio, location,
			personality_type, emotional_intelligence_score, attachment_style,
			communication_style, conflict_resolution_style,
			love_languages, values, life_goals, interests,
			response_time_preference, social_energy_level,
			openness_score, conscientiousness_score, extraversion_score,
			agreeableness_score, neuroticism_score,
			current_state, last_active_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		user.ID, user.Email, user.Name, user.Age, user.Bio, user.Location,
		user.PersonalityType, user.EmotionalIntelligenceScore, user.AttachmentStyle,
		user.CommunicationStyle, user.ConflictResolutionStyle,
		pq.Array(user.LoveLanguages), pq.Array(user.Values), pq.Array(user.LifeGoals), pq.Array(user.Interests),
		user.ResponseTimePreference, user.SocialEnergyLevel,
		user.OpennessScore, user.ConscientiousnessScore, user.ExtraversionScore,
		user.AgreeablenessScore, user.NeuroticismScore,
		user.CurrentState, user.LastActiveAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrUserExists
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	query := `
		UPDATE users
		SET name = $1, age = $2, bio = $3, location = $4,
		    personality_type = $5, emotional_intelligence_score = $6,
		    attachment_style = $7, communication_style = $8,
		    conflict_resolution_style = $9,
		    love_languages = $10, values = $11, life_goals = $12, interests = $13,
		    response_time_preference = $14, social_energy_level = $15,
		    openness_score = $16, conscientiousness_score = $17,
		    extraversion_score = $18, agreeableness_score = $19, neuroticism_score = $20,
		    last_active_at = $21, updated_at = CURRENT_TIMESTAMP
		WHERE id = $22
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		user.Name, user.Age, user.Bio, user.Location,
		user.PersonalityType, user.EmotionalIntelligenceScore,
		user.AttachmentStyle, user.CommunicationStyle,
		user.ConflictResolutionStyle,
		pq.Array(user.LoveLanguages), pq.Array(user.Values), pq.Array(user.LifeGoals), pq.Array(user.Interests),
		user.ResponseTimePreference, user.SocialEnergyLevel,
		user.OpennessScore, user.ConscientiousnessScore,
		user.ExtraversionScore, user.AgreeablenessScore, user.NeuroticismScore,
		user.LastActiveAt, user.ID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *userRepository) ListAvailable(ctx context.Context, excludingID string) ([]*domain.UserProfile, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE current_state = $1 AND id != $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, domain.UserStateAvailable, excludingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.UserProfile
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) ActivateOnboarded(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET current_state = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND current_state = $3
	`
	return r.execTransition(ctx, query, domain.UserStateAvailable, id, domain.UserStateOnboarding)
}

func (r *userRepository) SetFrozen(ctx context.Context, id string, until time.Time) error {
	query := `
		UPDATE users
		SET current_state = $1, freeze_until = $2, match_id = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND current_state = $4
	`
	return r.execTransition(ctx, query, domain.UserStateFrozen, until, id, domain.UserStateMatched)
}

func (r *userRepository) Unfreeze(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET current_state = $1, freeze_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND current_state = $3
	`
	return r.execTransition(ctx, query, domain.UserStateAvailable, id, domain.UserStateFrozen)
}

func (r *userRepository) ReleaseFromMatch(ctx context.Context, id, matchID string) error {
	query := `
		UPDATE users
		SET current_state = $1, match_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND match_id = $3 AND current_state = $4
	`
	return r.execTransition(ctx, query, domain.UserStateAvailable, id, matchID, domain.UserStateMatched)
}

// execTransition runs a guarded state update; zero rows means the guard did
// not hold, which the caller interprets against the user's current state.
func (r *userRepository) execTransition(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}
