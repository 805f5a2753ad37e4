package database

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect("sqlite", "file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	record := models.HistoryRecord{ID: "r1", UserID: "u1", Timestamp: time.Now(), EncryptedData: "sealed"}
	require.NoError(t, db.Create(&record).Error)
	require.True(t, db.Migrator().HasTable("grading_history"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn")
	require.Error(t, err)

	_, err = Connect("postgres", "")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client, err := ConnectRedis("redis://" + server.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	_, err = ConnectRedis("")
	require.Error(t, err)
}
