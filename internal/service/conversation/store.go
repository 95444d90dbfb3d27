package conversation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"go.uber.org/zap"
)

// Store is the Postgres audit log of conversation turns. It is append
// only; context resolution reads the Redis side, not this table.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewStore(postgres *database.PostgresService, logger *zap.Logger) *Store {
	return &Store{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversation_turns (
			id BIGSERIAL PRIMARY KEY,
			conv_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			intent_type TEXT,
			entities JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_conversation_turns_conv
			ON conversation_turns (conv_id, created_at DESC);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure conversation schema: %w", err)
	}
	return nil
}

func (s *Store) SaveTurn(ctx context.Context, turn domain.ConversationTurn) error {
	query := `
		INSERT INTO conversation_turns (conv_id, role, text, intent_type, entities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	intent := sql.NullString{}
	if turn.Intent != "" {
		intent = sql.NullString{String: turn.Intent.String(), Valid: true}
	}

	var entities []byte
	if len(turn.Entities) > 0 {
		entities = turn.Entities
	}

	_, err := s.db.ExecContext(ctx, query,
		turn.ConvID, string(turn.Role), turn.Text, intent, entities, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to n turns of a conversation in chronological
// order, oldest first.
func (s *Store) RecentTurns(ctx context.Context, convID string, n int) ([]domain.ConversationTurn, error) {
	query := `
		SELECT conv_id, role, text, intent_type, entities, created_at
		FROM conversation_turns
		WHERE conv_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, convID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var (
			turn     domain.ConversationTurn
			role     string
			intent   sql.NullString
			entities []byte
		)

		if err := rows.Scan(&turn.ConvID, &role, &turn.Text, &intent, &entities, &turn.CreatedAt); err != nil {
			s.logger.Warn("Failed to scan conversation turn", zap.Error(err))
			continue
		}

		turn.Role = domain.TurnRole(role)
		if intent.Valid {
			turn.Intent = domain.IntentType(intent.String)
		}
		if len(entities) > 0 {
			turn.Entities = entities
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversation turns: %w", err)
	}

	// Rows arrive newest first; flip to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}
