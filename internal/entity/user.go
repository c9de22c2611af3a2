package entity

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	DisplayName       string            `json:"display_name"`
	PhotoURL          string            `json:"photo_url"`
	Role              string            `json:"role"`
	ShippingAddresses []ShippingAddress `json:"shipping_addresses"`
	PasswordHash      string            `json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

/*
Mysql Schema:
CREATE TABLE users (
	id CHAR(36) PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	display_name VARCHAR(255) NOT NULL,
	photo_url VARCHAR(1024) NOT NULL,
	role VARCHAR(20) NOT NULL,
	shipping_addresses JSON NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at DATETIME(3) NOT NULL
);

CREATE UNIQUE INDEX email_idx ON users(email);
*/
