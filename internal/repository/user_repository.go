package repository

import (
	"context"
	"database/sql"

	"storefront-service/internal/entity"
)

const userColumns = `SELECT id, username, email, first_name, last_name, hashed_password, is_active, role, phone_number, age`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	var (
		phone sql.NullString
		age   sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.HashedPassword, &u.IsActive, &u.Role, &phone, &age)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (username, email, first_name, last_name, hashed_password, is_active, role, phone_number, age)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.FirstName, user.LastName,
		user.HashedPassword, user.IsActive, user.Role, user.PhoneNumber, user.Age)
	if err != nil {
		return mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(id)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `UPDATE users SET email = ?, first_name = ?, last_name = ?, hashed_password = ?, is_active = ?, role = ?, phone_number = ?, age = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, user.Email, user.FirstName, user.LastName, user.HashedPassword,
		user.IsActive, user.Role, user.PhoneNumber, user.Age, user.ID)
	return mapError(err)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
