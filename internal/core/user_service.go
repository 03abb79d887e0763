package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userSelect = `
	SELECT u.id, u.company_id, c.company_code, u.username, u.email, u.password_hash, u.role, u.is_active, u.created_at
	FROM users u
	JOIN companies c ON c.id = u.company_id`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.CompanyID, &u.CompanyCode, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt)
	return u, err
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		userSelect+" WHERE u.username = $1 AND u.is_active = true",
		username,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("user", username)
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, userSelect+" WHERE u.id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("user", userID)
		}
		return nil, fmt.Errorf("get user id=%d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, input NewUser) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.PasswordHash == "" {
		return nil, invalidf("username and password are required")
	}
	if input.Role == "" {
		input.Role = RoleMember
	}
	if input.Role != RoleAdmin && input.Role != RoleMember {
		return nil, invalidf("unknown role %q", input.Role)
	}

	var id int
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO users (company_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		input.CompanyID, input.Username, input.Email, input.PasswordHash, input.Role,
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert user %q: %w", input.Username, err)
	}
	return s.GetByID(ctx, id)
}
