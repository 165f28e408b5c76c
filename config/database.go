package config

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db     *gorm.DB
	onceDB sync.Once
)

var enumQueries = []string{
	`CREATE TYPE mlboard.competition_status AS ENUM ('upcoming', 'ongoing', 'completed')`,
}

// DatabaseConnection returns the shared gorm connection, initializing it on
// first use.
func DatabaseConnection() *gorm.DB {
	onceDB.Do(func() {
		var err error
		db, err = InitDB()
		if err != nil {
			panic(err)
		}
	})
	return db
}

func InitDB() (*gorm.DB, error) {
	cfg := Env()
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.DatabaseName,
	)
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "mlboard.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	x := conn.Exec(`CREATE SCHEMA IF NOT EXISTS mlboard`)
	if x.Error != nil {
		return nil, x.Error
	}
	for _, query := range enumQueries {
		x := conn.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return nil, x.Error
		}
	}
	return conn, nil
}
