package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mawazo/darasa/core/user"
)

type userRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        string      `db:"email"`
	IsActive     bool        `db:"is_active"`
	IsAdmin      bool        `db:"is_admin"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email,
		IsActive:     r.IsActive,
		IsAdmin:      r.IsAdmin,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func toUsers(rows []userRow) []user.User {
	usrs := make([]user.User, len(rows))
	for i, r := range rows {
		usrs[i] = r.toUser()
	}
	return usrs
}

type userRepository struct {
	db queryer
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

const selectUser = `SELECT id, name, username, email, is_active, is_admin, password_hash, created_at, updated_at, last_login FROM "user"`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	if len(exclIDs) == 0 {
		exclIDs = append(exclIDs, 0) // sqlx.In rejects empty slices
	}

	check := func(column, value string) (bool, error) {
		if value == "" {
			return false, nil
		}
		q, args, err := sqlx.In(`SELECT EXISTS(SELECT 1 FROM "user" WHERE `+column+` = ? AND id NOT IN (?))`, value, exclIDs)
		if err != nil {
			return false, err
		}
		var taken bool
		err = repo.db.GetContext(ctx, &taken, repo.db.Rebind(q), args...)
		return taken, err
	}

	if taken, err := check("username", username); err != nil {
		return err
	} else if taken {
		return user.ErrUsernameExists
	}
	if taken, err := check("email", email); err != nil {
		return err
	} else if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
INSERT INTO "user" (name, username, email, is_active, is_admin, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.db.GetContext(ctx, &usr.ID, q,
		usr.Name, null.NewString(usr.Username, usr.Username != ""), usr.Email,
		usr.IsActive, usr.IsAdmin, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "user_username_key") {
			return user.User{}, user.ErrUsernameExists
		}
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, selectUser+` ORDER BY id`); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getOne(ctx, selectUser+` WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) GetUsersByID(ctx context.Context, ids ...int) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := inQuery(repo.db, selectUser+` WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := selectUser + ` WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "?"
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q += ` AND (name ILIKE ` + arg(pattern) + ` OR username ILIKE ` + arg(pattern) + ` OR email ILIKE ` + arg(pattern) + `)`
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		q += ` AND created_at >= ` + arg(filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q += ` AND created_at <= ` + arg(filter.CreatedTo.UTC())
	}
	q += ` ORDER BY id`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	const q = `
UPDATE "user" SET
	name = $2,
	username = $3,
	email = $4,
	password_hash = COALESCE($5, password_hash),
	is_active = COALESCE($6, is_active),
	updated_at = $7
WHERE id = $1
RETURNING id, name, username, email, is_active, is_admin, password_hash, created_at, updated_at, last_login`
	var hash interface{}
	if usr.PasswordHash != nil {
		hash = usr.PasswordHash
	}
	var active sql.NullBool
	if isActive != nil {
		active = sql.NullBool{Bool: *isActive, Valid: true}
	}

	var row userRow
	err := repo.db.GetContext(ctx, &row, q,
		usr.ID, usr.Name, null.NewString(usr.Username, usr.Username != ""), usr.Email,
		hash, active, usr.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		if isUniqueViolation(err, "user_username_key") {
			return user.User{}, user.ErrUsernameExists
		}
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id int, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE "user" SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := inQuery(repo.db, `DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, q, args...)
	return err
}
