package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain/tests"

	postgrestest "github.com/christmas-web3/christmas-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
	CREATE TABLE christmas__core_programaccount (
		id serial NOT NULL PRIMARY KEY,

		address TEXT UNIQUE NOT NULL,
		data BYTEA NOT NULL,

		last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE TABLE christmas__core_mint (
		id serial NOT NULL PRIMARY KEY,

		address TEXT UNIQUE NOT NULL,
		authority TEXT NOT NULL,
		supply BIGINT NOT NULL,
		decimals INTEGER NOT NULL,

		last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE TABLE christmas__core_tokenaccount (
		id serial NOT NULL PRIMARY KEY,

		address TEXT UNIQUE NOT NULL,
		mint TEXT NOT NULL,
		owner TEXT NOT NULL,
		amount BIGINT NOT NULL,

		last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE christmas__core_programaccount;
		DROP TABLE christmas__core_mint;
		DROP TABLE christmas__core_tokenaccount;
	`
)

var (
	testStore chain.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	var cleanUpFunc func()
	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestChainPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	return err
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		return err
	}

	return createTestTables(db)
}
