// internal/models/customer.go
package models

import (
	"time"
)

// CustomerPartition groups every customer profile.
const CustomerPartition = "Customer"

type Customer struct {
	TableEntity
	FirstName       string    `json:"first_name" gorm:"size:100"`
	LastName        string    `json:"last_name" gorm:"size:100"`
	Email           string    `json:"email" gorm:"size:255;not null;index"`
	Phone           string    `json:"phone" gorm:"size:50"`
	DeliveryAddress string    `json:"delivery_address" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
