package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/goliatone/go-dataflow/core"
	"github.com/goliatone/go-dataflow/migrations"
	sqlstore "github.com/goliatone/go-dataflow/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-dataflow-tests"
}

func TestTransferStore_SaveInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestTransferStore(t)

	created := core.NewTransferRecord(testRequest("req-1"), time.Now().UTC())
	saved, err := store.Save(ctx, created)
	if err != nil {
		t.Fatalf("save new record: %v", err)
	}
	if saved.ID != "req-1" || saved.State != core.DataFlowStateNotTracked {
		t.Fatalf("unexpected saved record %+v", saved)
	}
	if saved.DestinationProperties["accountKey"] != core.RedactedValue {
		t.Fatalf("expected credential-like properties to be redacted, got %v", saved.DestinationProperties)
	}

	if err := saved.TransitionTo(core.DataFlowStateReceived, "", time.Now().UTC()); err != nil {
		t.Fatalf("transition: %v", err)
	}
	saved.Attempts = 2
	if _, err := store.Save(ctx, saved); err != nil {
		t.Fatalf("save updated record: %v", err)
	}

	loaded, err := store.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.State != core.DataFlowStateReceived || loaded.Attempts != 2 {
		t.Fatalf("expected updated record, got %+v", loaded)
	}
	if loaded.DestinationType != "blob" || loaded.SourceType != "AmazonS3" || loaded.DataEntryID != "entry-req-1" {
		t.Fatalf("expected descriptive fields to round trip, got %+v", loaded)
	}

	all, err := store.List(ctx, core.TransferFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected update to keep a single row, got %d", len(all))
	}
}

func TestTransferStore_GetUnknownIsNotFound(t *testing.T) {
	store := newTestTransferStore(t)
	if _, err := store.Get(context.Background(), "missing"); !core.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTransferStore_ListFiltersByStateAndLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestTransferStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, state := range []core.DataFlowState{
		core.DataFlowStateReceived,
		core.DataFlowStateFailed,
		core.DataFlowStateReceived,
		core.DataFlowStateReceived,
	} {
		record := core.NewTransferRecord(testRequest(fmt.Sprintf("req-%d", i)), base.Add(time.Duration(i)*time.Minute))
		record.State = state
		if _, err := store.Save(ctx, record); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	received := core.DataFlowStateReceived
	records, err := store.List(ctx, core.TransferFilter{State: &received, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "req-0" || records[1].ID != "req-2" {
		t.Fatalf("expected creation order, got %s, %s", records[0].ID, records[1].ID)
	}
	for _, record := range records {
		if record.State != core.DataFlowStateReceived {
			t.Fatalf("expected received records only, got %s", record.State)
		}
	}
}

func TestTransferStore_BacksServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestTransferStore(t)
	svc, err := core.NewService(core.DefaultConfig(),
		core.WithTransferStore(store),
		core.WithControllers(core.NewControllerFunc(
			func(core.TransferRequest) bool { return true },
			func(context.Context, core.TransferRequest) core.FlowOutcome { return core.OK() },
		)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Process(ctx, testRequest("req-svc")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := svc.Complete(ctx, "req-svc"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.Notify(ctx, "req-svc"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	state, err := svc.State(ctx, "req-svc")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != core.DataFlowStateNotified || state.Code() != 400 {
		t.Fatalf("expected notified state code 400, got %s (%d)", state, state.Code())
	}
}

func TestNewTransferStoreFromPersistence_RejectsUnsupportedClients(t *testing.T) {
	if _, err := sqlstore.NewTransferStoreFromPersistence(nil); err == nil {
		t.Fatalf("expected nil client to be rejected")
	}
	if _, err := sqlstore.NewTransferStoreFromPersistence("not-a-client"); err == nil {
		t.Fatalf("expected unsupported client type to be rejected")
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	if _, err := sqlstore.Open("mysql", "root@/db"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	db, err := sqlstore.Open("sqlite", "file:open-test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	if db.Dialect().Name() != dialect.SQLite {
		t.Fatalf("expected sqlite dialect, got %v", db.Dialect().Name())
	}
}

func testRequest(id string) core.TransferRequest {
	return core.TransferRequest{
		ID: id,
		DataEntry: &core.DataEntry{
			ID: "entry-" + id,
			CatalogEntry: &core.CatalogEntry{Address: core.Address{
				Type:       "AmazonS3",
				Properties: map[string]string{"keyName": "src-key"},
			}},
		},
		Destination: &core.Address{
			Type:       "blob",
			Properties: map[string]string{"keyName": "dest-key", "container": "out", "accountKey": "leaked"},
		},
	}
}

func newTestTransferStore(t *testing.T) *sqlstore.TransferStore {
	t.Helper()
	client := newSQLiteClient(t)
	store, err := sqlstore.NewTransferStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new transfer store: %v", err)
	}
	return store
}

func newSQLiteClient(t *testing.T) *persistence.Client {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:dataflow-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	_, err = migrations.RegisterForDriver(ctx, "sqlite3", func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	})
	if err != nil {
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}
