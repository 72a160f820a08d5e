package mock

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var once sync.Once
var db *Db

// Migrator creates the schema. It runs inside the exclusive transaction
// after every registered table was dropped.
type Migrator func(tx *gorm.DB) error

type Db struct {
	DbConn  *gorm.DB
	models  map[string]any
	schema  string
	migrate Migrator
}

// NewDb opens the shared in-memory ledger store. models maps table names to
// their gorm models; migrate creates them.
func NewDb(schema string, models map[string]any, migrate Migrator) *Db {
	if db == nil {
		once.Do(
			func() {
				db = open(schema, models, migrate)
			},
		)
	}

	return db
}

func open(schema string, models map[string]any, migrate Migrator) *Db {
	dbSQL, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		panic(err)
	}

	dbSQL.SetMaxOpenConns(1)

	dbConn, err := gorm.Open(sqlite.Dialector{Conn: dbSQL}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("failed to connect to database. err: " + err.Error())
	}

	newDbMock := &Db{
		DbConn:  dbConn,
		schema:  schema,
		models:  models,
		migrate: migrate,
	}

	err = newDbMock.ClearDB()
	if err != nil {
		panic(fmt.Sprintf("failed to clear database. err: %s", err.Error()))
	}

	return newDbMock
}

func (d *Db) ClearDB() (err error) {
	for attempt := 1; ; attempt++ {
		if attempt > 5 {
			return fmt.Errorf("failed to clear database after %d attempts: %w", attempt-1, err)
		}
		if err = d.DbConn.Exec("ATTACH ':memory:' AS " + d.schema).Error; err != nil {
			if !strings.Contains(err.Error(), "is already in use") {
				return err
			}
		} else {
			if err = d.init(); err != nil {
				continue
			}

			time.Sleep(200 * time.Millisecond)

			_ = d.DbConn.Exec("PRAGMA schema_version").Error

			if err = d.checkTables(); err != nil {
				continue
			}
		}

		if err = d.reset(); err != nil {
			continue
		}
		return nil
	}
}

func (d *Db) init() (err error) {
	tx := d.DbConn.Exec("BEGIN EXCLUSIVE")
	defer func() {
		if rec := recover(); rec != nil {
			tx.Exec("ROLLBACK")
			err = fmt.Errorf("panic occurred while clearing DB: %v", rec)
		} else if err != nil {
			if errTx := tx.Exec("ROLLBACK").Error; errTx != nil {
				panic(errTx)
			}
		} else {
			if errTx := tx.Exec("COMMIT").Error; errTx != nil {
				panic(errTx)
			}
		}
	}()

	for table := range d.models {
		if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			return err
		}
	}

	if err := d.migrate(tx); err != nil {
		return err
	}

	for table := range d.models {
		if !tx.Migrator().HasTable(table) {
			return fmt.Errorf("table %s was not created", table)
		}
	}

	return nil
}

func (d *Db) reset() error {
	for table := range d.models {
		if err := d.DbConn.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Db) checkTables() error {
	for table := range d.models {
		if !d.DbConn.Migrator().HasTable(table) {
			return fmt.Errorf("table %s was not created", table)
		}
		var count int64
		if err := d.DbConn.Table(table).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to query table %s: %w", table, err)
		}
	}
	return nil
}

func (d *Db) GetModel(table string) (any, bool) {
	model, ok := d.models[table]
	return model, ok
}
