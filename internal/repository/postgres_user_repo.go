package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/taskboard/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反コード。
const pqUniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, google_id, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByGoogleID はGoogle IDでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`,
		googleID,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。IDが空の場合は新規に採番する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		user.ID, user.Name, user.Email, nullString(user.PasswordHash), nullString(user.GoogleID),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// LinkGoogleID はgoogle_idが未設定のユーザーにのみGoogle IDを設定する。
func (r *PostgresUserRepo) LinkGoogleID(ctx context.Context, userID, googleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = $2, updated_at = now()
		 WHERE id = $1 AND google_id IS NULL`,
		userID, googleID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("failed to link google ID: %w", ErrDuplicate)
		}
		return false, fmt.Errorf("failed to link google ID: %w", err)
	}
	return affectedOne(result)
}

// UpdatePasswordHash はパスワードハッシュを更新する。
func (r *PostgresUserRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update password hash: %w", err)
	}
	return affectedOne(result)
}

// scanUser は1行をUserに変換する。行がない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var passwordHash, googleID sql.NullString
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &passwordHash, &googleID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.PasswordHash = stringPtr(passwordHash)
	user.GoogleID = stringPtr(googleID)
	return user, nil
}

func affectedOne(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
