package chathistory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

func dryRunClient(t *testing.T) *cratedb.CrateDB {
	t.Helper()
	return dryRunClientWithConfig(t, cratedb.Config{})
}

func dryRunClientWithConfig(t *testing.T, cfg cratedb.Config) *cratedb.CrateDB {
	t.Helper()
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=localhost port=5432 user=crate dbname=doc sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true},
	)
	require.NoError(t, err)
	client, err := cratedb.NewClientFromDB(db, cfg, nil)
	require.NoError(t, err)
	return client
}

// recordRaw collects the statements issued through Exec.
func recordRaw(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var stmts []string
	err := db.Callback().Raw().After("gorm:raw").Register("test:record_raw", func(tx *gorm.DB) {
		stmts = append(stmts, tx.Statement.SQL.String())
	})
	require.NoError(t, err)
	return &stmts
}

func TestNewStoreTableName(t *testing.T) {
	ctx := context.Background()
	client := dryRunClient(t)

	s, err := NewStore(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, DefaultTableName, s.TableName())

	s, err = NewStore(ctx, client, WithTableName("chat_history"))
	require.NoError(t, err)
	assert.Equal(t, "chat_history", s.TableName())

	for _, name := range []string{"", "drop table x", "a;b", "1abc"} {
		_, err := NewStore(ctx, client, WithTableName(name))
		assert.Error(t, err, name)
	}
}

func TestAppendStatement(t *testing.T) {
	client := dryRunClient(t)
	s, err := NewStore(context.Background(), client, WithTableName("test_table"))
	require.NoError(t, err)

	records := []messageRecord{{SessionID: "123", Position: 0, Role: string(schema.RoleHuman), Content: "Hello!"}}
	stmt := s.db(context.Background()).Create(&records).Statement

	assert.Contains(t, stmt.SQL.String(),
		`INSERT INTO "test_table" ("session_id","position","role","content","additional") VALUES`)
	require.Len(t, stmt.Vars, 5)
	assert.Equal(t, "123", stmt.Vars[0])
}

func TestRefreshBeforePosition(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes when the client does not", func(t *testing.T) {
		client := dryRunClient(t)
		s, err := NewStore(ctx, client, WithTableName("test_table"))
		require.NoError(t, err)

		stmts := recordRaw(t, client.DB())
		require.NoError(t, s.refresh(ctx))
		assert.Equal(t, []string{`REFRESH TABLE "test_table"`}, *stmts)
	})

	t.Run("skips when writes already refresh", func(t *testing.T) {
		client := dryRunClientWithConfig(t, cratedb.Config{RefreshAfterDML: true})
		s, err := NewStore(ctx, client, WithTableName("test_table"))
		require.NoError(t, err)

		stmts := recordRaw(t, client.DB())
		require.NoError(t, s.refresh(ctx))
		assert.Empty(t, *stmts)
	})
}
