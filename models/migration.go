package models

import (
	"log"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&User{},
		&Property{},
		&HouseType{},
		&Unit{},
		&Tenant{},
		&Lease{},
		&ChargeCode{},
		&MeterReading{},
		&Invoice{},
		&InvoiceItem{},
		&Payment{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
