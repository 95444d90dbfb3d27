package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"github.com/opengovchat/decision-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// DecisionStore persists scraped decision metadata. It serves ingest and
// liveness checks; chat answers go through the bot chain, not this table.
type DecisionStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDecisionStore(postgres *PostgresService, logger *zap.Logger) *DecisionStore {
	return &DecisionStore{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (s *DecisionStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS decisions (
			government_number INT NOT NULL,
			decision_number INT NOT NULL,
			title TEXT NOT NULL,
			content TEXT,
			topic TEXT,
			ministries JSONB NOT NULL DEFAULT '[]',
			operativity TEXT,
			decision_date DATE,
			url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (government_number, decision_number)
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_topic ON decisions (topic);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewDatabaseError("failed to ensure decisions schema", "decisions", "create", err)
	}
	return nil
}

func (s *DecisionStore) Upsert(ctx context.Context, d *domain.Decision) error {
	if d.GovernmentNumber <= 0 || d.DecisionNumber <= 0 {
		return fmt.Errorf("decision needs positive government and decision numbers, got %d/%d",
			d.GovernmentNumber, d.DecisionNumber)
	}

	ministriesJSON, err := json.Marshal(d.Ministries)
	if err != nil {
		return errors.NewDatabaseError("failed to marshal ministries", "decisions", "upsert", err)
	}

	query := `
		INSERT INTO decisions (government_number, decision_number, title, content, topic, ministries, operativity, decision_date, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::date, $9)
		ON CONFLICT (government_number, decision_number) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			topic = EXCLUDED.topic,
			ministries = EXCLUDED.ministries,
			operativity = EXCLUDED.operativity,
			decision_date = EXCLUDED.decision_date,
			url = EXCLUDED.url
	`

	_, err = s.db.ExecContext(ctx, query,
		d.GovernmentNumber, d.DecisionNumber, d.Title, d.Content, d.Topic,
		ministriesJSON, d.Operativity, d.DecisionDate, d.URL,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert decision", "decisions", "upsert", err)
	}
	return nil
}

// GetByNumber returns nil without error when the decision is unknown.
func (s *DecisionStore) GetByNumber(ctx context.Context, governmentNumber, decisionNumber int) (*domain.Decision, error) {
	query := `
		SELECT government_number, decision_number, title, content, topic, ministries, operativity, decision_date, url, created_at
		FROM decisions
		WHERE government_number = $1 AND decision_number = $2
		LIMIT 1
	`

	var (
		d              domain.Decision
		content        sql.NullString
		topic          sql.NullString
		ministriesJSON []byte
		operativity    sql.NullString
		decisionDate   sql.NullTime
		url            sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, governmentNumber, decisionNumber).Scan(
		&d.GovernmentNumber, &d.DecisionNumber, &d.Title, &content, &topic,
		&ministriesJSON, &operativity, &decisionDate, &url, &d.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query decision", "decisions", "get", err)
	}

	if err := json.Unmarshal(ministriesJSON, &d.Ministries); err != nil {
		return nil, errors.NewDatabaseError("failed to unmarshal ministries", "decisions", "get", err)
	}

	d.ID = d.Key()
	d.Content = content.String
	d.Topic = topic.String
	d.Operativity = operativity.String
	d.URL = url.String
	if decisionDate.Valid {
		d.DecisionDate = util.FormatISODate(decisionDate.Time)
	}

	return &d, nil
}

func (s *DecisionStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&count); err != nil {
		return 0, errors.NewDatabaseError("failed to count decisions", "decisions", "count", err)
	}
	return count, nil
}
