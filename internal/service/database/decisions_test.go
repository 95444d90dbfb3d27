package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*DecisionStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &DecisionStore{db: db, logger: zap.NewNop()}, mock
}

func TestEnsureSchemaCreatesTable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS decisions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertWritesAllFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO decisions`).
		WithArgs(
			37, 2983, "תוכנית לאומית לחינוך", "החלטה על תקציב החינוך", "חינוך",
			[]byte(`["משרד החינוך","משרד האוצר"]`), "אופרטיבית", "2023-05-14",
			"https://www.gov.il/he/departments/policies/dec2983",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), &domain.Decision{
		GovernmentNumber: 37,
		DecisionNumber:   2983,
		Title:            "תוכנית לאומית לחינוך",
		Content:          "החלטה על תקציב החינוך",
		Topic:            "חינוך",
		Ministries:       []string{"משרד החינוך", "משרד האוצר"},
		Operativity:      "אופרטיבית",
		DecisionDate:     "2023-05-14",
		URL:              "https://www.gov.il/he/departments/policies/dec2983",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertRejectsBadNumbers(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.Upsert(context.Background(), &domain.Decision{
		GovernmentNumber: 0,
		DecisionNumber:   550,
		Title:            "החלטה",
	})
	if err == nil {
		t.Fatal("Upsert should reject a zero government number")
	}
}

func TestGetByNumberScansRow(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"government_number", "decision_number", "title", "content", "topic",
		"ministries", "operativity", "decision_date", "url", "created_at",
	}).AddRow(
		37, 2983, "תוכנית לאומית לחינוך", "תוכן", "חינוך",
		[]byte(`["משרד החינוך"]`), "אופרטיבית",
		time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC),
		"https://example.gov.il/dec2983", created,
	)

	mock.ExpectQuery(`SELECT government_number, decision_number, title`).
		WithArgs(37, 2983).
		WillReturnRows(rows)

	d, err := store.GetByNumber(context.Background(), 37, 2983)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if d == nil {
		t.Fatal("expected a decision")
	}

	if d.ID != "37/2983" {
		t.Errorf("ID = %q, want 37/2983", d.ID)
	}
	if d.Title != "תוכנית לאומית לחינוך" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.DecisionDate != "2023-05-14" {
		t.Errorf("DecisionDate = %q, want 2023-05-14", d.DecisionDate)
	}
	if len(d.Ministries) != 1 || d.Ministries[0] != "משרד החינוך" {
		t.Errorf("Ministries = %v", d.Ministries)
	}
	if d.Operativity != "אופרטיבית" {
		t.Errorf("Operativity = %q", d.Operativity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetByNumberMissingIsNotAnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT government_number, decision_number, title`).
		WithArgs(36, 99999).
		WillReturnError(sql.ErrNoRows)

	d, err := store.GetByNumber(context.Background(), 36, 99999)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil for an unknown decision, got %+v", d)
	}
}

func TestCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM decisions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(412))

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 412 {
		t.Errorf("count = %d, want 412", count)
	}
}
