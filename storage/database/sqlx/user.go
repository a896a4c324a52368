package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func packUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func unpackUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unpack())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := packUser(usr)
	query := `
		INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		args  []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		where, args = `id = $1`, []interface{}{filter.ID}
	case filter.Username != "":
		where, args = `username = $1`, []interface{}{filter.Username}
	case filter.Email != "":
		where, args = `email = $1`, []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		where, args = `username = $1 OR email = $1`, []interface{}{filter.UsernameOrEmail}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	query := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.unpack(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			ph := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", ph))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleConds = append(roleConds, fmt.Sprintf(
					`id IN (SELECT id FROM "user", UNNEST(roles) user_role WHERE user_role ILIKE %s)`, arg(role+"%")))
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	query := `SELECT ` + userColumns + ` FROM "user"`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return unpackUsers(rows), nil
}

// UpdateUser only saves set fields.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if usr.Roles != nil {
		set("roles", pq.Array(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	if len(sets) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr, nil)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
