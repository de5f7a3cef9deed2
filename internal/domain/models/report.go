package models

import "time"

// AlertReport is the daily snapshot of rows needing attention, stored in MongoDB.
type AlertReport struct {
	Date          time.Time `bson:"date" json:"date"`
	TotalProducts int       `bson:"total_products" json:"total_products"`
	OutOfStock    []string  `bson:"out_of_stock" json:"out_of_stock"`
	Expired       []string  `bson:"expired" json:"expired"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// HasAlerts reports whether any row is out of stock or expired.
func (r AlertReport) HasAlerts() bool {
	return len(r.OutOfStock) > 0 || len(r.Expired) > 0
}
