package db_models

import "time"

// Product is the slice of a product record this service reads. Products are
// written by the product service; billing only counts them.
type Product struct {
	ID        uint      `bson:"-" gorm:"primaryKey"`
	ClientID  string    `bson:"-" gorm:"index;not null"`
	CreatedAt time.Time `bson:"createdAt" gorm:"index"`
}
