package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
)

const userColumns = "id, name, email, phone, role, is_active, password_hash, created_at, updated_at, last_login"

var userOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	w := &where{}
	w.add("email = ?", email)
	if ids := validIDs(excludedIDs); len(ids) > 0 {
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := w.build(repo.exec, "SELECT EXISTS (SELECT 1 FROM users", ")")
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var exists bool
	if err = repo.exec.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :phone, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.exec.NamedExecContext(ctx, q, usr); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]user.User, int, error) {
	w := &where{}
	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("name ILIKE ? OR email ILIKE ?", val, val)
		}
		if len(filter.Roles) > 0 {
			w.add("role IN (?)", filter.Roles)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	users := make([]user.User, 0)
	orderBy := core.OrderBy(ordering, userOrderings, "name ASC, email ASC")
	total, err := queryPage(ctx, repo.exec, &users, "SELECT "+userColumns+" FROM users", "FROM users", w, orderBy, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	return users, total, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		usr user.User
		err error
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		err = repo.exec.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE id = $1", filter.ID)
	case filter.Email != "":
		err = repo.exec.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE email = $1", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET
		name = :name, email = :email, phone = :phone, role = :role, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, usr)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// DeleteUsersByID relies on ON DELETE CASCADE for the users' data.
func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	w := &where{}
	w.add("id IN (?)", ids)
	q, args, err := w.build(repo.exec, "DELETE FROM users", "")
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "reading affected rows")
}
