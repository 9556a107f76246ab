package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "portal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=portal sslmode=disable application_name=placement-portal-api", dsn)

	url := "postgres://u:p@db:5432/portal?sslmode=require"
	assert.Equal(t, url, DSN(config.DatabaseConfig{URL: url, Host: "ignored"}))
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE students SET name = 'x'")
		return err
	}))

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
