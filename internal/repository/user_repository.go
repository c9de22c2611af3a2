package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"storefront-service/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

const userColumns = `id, email, display_name, photo_url, role, shipping_addresses, password_hash, created_at`

func scanUser(s scanner) (*entity.User, error) {
	var user entity.User
	var addresses []byte
	err := s.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PhotoURL, &user.Role, &addresses, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &user.ShippingAddresses); err != nil {
			return nil, err
		}
	}
	if user.ShippingAddresses == nil {
		user.ShippingAddresses = []entity.ShippingAddress{}
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	addresses, err := json.Marshal(user.ShippingAddresses)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.Email, user.DisplayName, user.PhotoURL, user.Role, addresses, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, duplicate(err)
	}
	return user, nil
}

func (r *UserRepository) UpdateShippingAddresses(ctx context.Context, id string, addresses []entity.ShippingAddress) error {
	data, err := json.Marshal(addresses)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET shipping_addresses = ? WHERE id = ?`, data, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
