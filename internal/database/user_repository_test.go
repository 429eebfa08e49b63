package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saasvalidator/page-service/internal/database"
	"github.com/saasvalidator/page-service/internal/models"
)

func TestUserRepository_GetByID(t *testing.T) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := database.NewUserRepository(sqlx.NewDb(db, "sqlmock"))
	userID := uuid.New()
	now := time.Now().UTC()

	t.Run("returns user with plan", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "email", "full_name", "avatar_url", "plan", "created_at", "updated_at",
		}).AddRow(userID, "owner@example.com", nil, nil, "pro", now, now)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(userID).
			WillReturnRows(rows)

		user, getErr := repo.GetByID(context.Background(), userID)
		if getErr != nil {
			t.Fatalf("GetByID() error = %v", getErr)
		}
		if user.Plan != models.PlanPro {
			t.Errorf("GetByID() plan = %s, want pro", user.Plan)
		}
	})

	t.Run("missing user maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		_, getErr := repo.GetByID(context.Background(), userID)
		if !errors.Is(getErr, models.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", getErr)
		}
	})

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
