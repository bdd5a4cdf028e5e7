// Package mysql persists the instrument catalog through GORM.
package mysql

import "gorm.io/gorm"

// InstrumentPO is the persistence object for one instrument definition.
type InstrumentPO struct {
	gorm.Model
	Symbol    string  `gorm:"column:symbol;type:varchar(20);uniqueIndex;not null"`
	Median    float64 `gorm:"column:median;type:decimal(20,8);not null"`
	Amplitude float64 `gorm:"column:amplitude;type:decimal(10,4);not null"`
}

// TableName maps the PO to its table.
func (InstrumentPO) TableName() string {
	return "instruments"
}
