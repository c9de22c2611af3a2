package entity

import "time"

type Review struct {
	ID               string    `json:"id" bson:"_id"`
	ProductID        string    `json:"product_id" bson:"product_id"`
	UserID           string    `json:"user_id" bson:"user_id"`
	UserName         string    `json:"user_name" bson:"user_name"`
	UserEmail        string    `json:"user_email" bson:"user_email"`
	Rating           int       `json:"rating" bson:"rating"`
	Title            *string   `json:"title" bson:"title"`
	Comment          string    `json:"comment" bson:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase" bson:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}
