package entity

import "time"

type Category struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	ImageURL     *string   `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

/*
CREATE TABLE categories (
	id CHAR(36) PRIMARY KEY,
	slug VARCHAR(100) NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	description TEXT NULL,
	image_url VARCHAR(1024) NULL,
	display_order INT NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	...
);
*/
