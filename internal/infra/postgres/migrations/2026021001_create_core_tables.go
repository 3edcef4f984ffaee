package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_core_tables.sql
var createCoreTablesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createCoreTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS ranking_entries;
				DROP TABLE IF EXISTS rankings;
				DROP TABLE IF EXISTS participant_answers;
				DROP TABLE IF EXISTS attempts;
				DROP TABLE IF EXISTS answers;
				DROP TABLE IF EXISTS exam_questions;
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS exams;
				DROP TABLE IF EXISTS users`)
			return err
		},
	)
}
