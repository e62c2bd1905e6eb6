package user

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"user-registry-api/internal/domain/user"
	"user-registry-api/internal/infrastructure/db/postgres"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
	qb sq.StatementBuilderType
}

func NewRepository(db DB) user.Repository {
	return &Repository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *Repository) FetchUsers(ctx context.Context) (user.Users, error) {
	rows, err := r.db.Query(ctx, SelectUsers)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	us := make(Users, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		us = append(us, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	return fromDBModels(us), nil
}

func (r *Repository) FetchUserByID(ctx context.Context, id string) (*user.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, SelectUserByID, uid.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("select user %s: %w", uid, err)
	}

	return fromDBModel(u), nil
}

func (r *Repository) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, SelectUserByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}

	return fromDBModel(u), nil
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(
		ctx,
		InsertUser,
		req.FirstName, req.LastName, req.Email, req.PhoneNumber, req.Gender, req.ProfilePicture,
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return fromDBModel(u), nil
}

// UpdateUser writes the non-nil patch fields and bumps updated_at.
// An empty patch only touches updated_at.
func (r *Repository) UpdateUser(ctx context.Context, id string, patch user.Patch) (*user.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query, args, err := r.updateQuery(uid, patch).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, user.ErrDuplicateEmail
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("update user %s: %w", uid, err)
	}

	return fromDBModel(u), nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) (*user.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, DeleteUserByID, uid.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("delete user %s: %w", uid, err)
	}

	return fromDBModel(u), nil
}

func (r *Repository) updateQuery(id uuid.UUID, patch user.Patch) sq.UpdateBuilder {
	q := r.qb.Update("users")

	for _, col := range []struct {
		name  string
		value *string
	}{
		{"first_name", patch.FirstName},
		{"last_name", patch.LastName},
		{"email", patch.Email},
		{"phone_number", patch.PhoneNumber},
		{"gender", patch.Gender},
		{"profile_picture", patch.ProfilePicture},
	} {
		if col.value != nil {
			q = q.Set(col.name, *col.value)
		}
	}

	return q.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id.String()}).
		Suffix("RETURNING " + userColumns)
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, user.ErrInvalidID
	}
	return uid, nil
}

func scanUser(row pgx.Row) (*User, error) {
	u := new(User)
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PhoneNumber,
		&u.Gender,
		&u.ProfilePicture,

		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return u, nil
}
