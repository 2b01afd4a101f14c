package repository

import (
	"fmt"

	"github.com/conny0506/jira-lite/internal/config"
	"github.com/conny0506/jira-lite/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured store. Postgres DSNs get the postgres
// driver; anything else (a file path or ":memory:") opens sqlite, which is
// what local development and tests use.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.IsPostgres() {
		dialector = postgres.Open(cfg.DSN)
	} else {
		dialector = sqlite.Open(cfg.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every domain entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Member{},
		&domain.Session{},
		&domain.Project{},
		&domain.Ticket{},
		&domain.Submission{},
		&domain.Meeting{},
	)
}

// Atomic runs multi-entity mutations as one all-or-nothing unit of work.
type Atomic interface {
	Transaction(fn func(members MemberRepository, sessions SessionRepository) error) error
}

type GormAtomic struct{ db *gorm.DB }

func NewAtomic(db *gorm.DB) Atomic { return &GormAtomic{db: db} }

func (a *GormAtomic) Transaction(fn func(members MemberRepository, sessions SessionRepository) error) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewMemberRepository(tx), NewSessionRepository(tx))
	})
}
