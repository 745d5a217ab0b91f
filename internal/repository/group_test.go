package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGroupRepository(t *testing.T) (*GroupRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewGroupRepository(db), mock
}

var groupColumns = []string{
	"id", "name", "description", "course_id", "created_by_id",
	"privacy", "passkey", "member_limit", "created_at", "updated_at",
}

func TestGroupRepository_LockGroup(t *testing.T) {
	ctx := context.Background()
	id, creator := uuid.New(), uuid.New()
	now := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

	t.Run("selects for update inside the transaction", func(t *testing.T) {
		repo, mock := newMockGroupRepository(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "study_groups" WHERE id = \$1 ORDER BY "study_groups"\."id" LIMIT \$2 FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows(groupColumns).
				AddRow(id.String(), "algorithms", "", "CS101", creator.String(), "public", nil, 5, now, now))
		mock.ExpectCommit()

		var locked *model.Group
		err := repo.Transaction(ctx, func(tx GroupRepositoryIface) error {
			var err error
			locked, err = tx.LockGroup(ctx, id)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, id, locked.ID)
		assert.Equal(t, creator, locked.CreatedByID)
		assert.Equal(t, 5, locked.MemberLimit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing group", func(t *testing.T) {
		repo, mock := newMockGroupRepository(t)
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(groupColumns))

		_, err := repo.LockGroup(ctx, id)
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is unavailable", func(t *testing.T) {
		repo, mock := newMockGroupRepository(t)
		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("connection reset"))

		_, err := repo.LockGroup(ctx, id)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGroupRepository_DeleteGroup(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("removes requests and memberships before the group", func(t *testing.T) {
		repo, mock := newMockGroupRepository(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "group_join_requests" WHERE group_id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "group_memberships" WHERE group_id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "study_groups" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteGroup(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repo, mock := newMockGroupRepository(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "group_join_requests"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "group_memberships"`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := repo.DeleteGroup(ctx, id)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGroupRepository_UpdateMembershipRole(t *testing.T) {
	ctx := context.Background()
	groupID, userID := uuid.New(), uuid.New()

	repo, mock := newMockGroupRepository(t)
	mock.ExpectExec(`UPDATE "group_memberships" SET "role"=\$1,"updated_at"=\$2 WHERE group_id = \$3 AND user_id = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMembershipRole(ctx, groupID, userID, model.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "group_memberships_pkey"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))

	err := storeErr("creating membership", unique)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.True(t, isUniqueViolation(err))
}
