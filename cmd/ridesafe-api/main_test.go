package main

import (
	"context"
	"os"
	"testing"

	"ridesafe/internal/config"
	"ridesafe/internal/logging"
	"ridesafe/internal/modules/conversation"
)

func TestNewStoreWithoutDSN(t *testing.T) {
	var cfg config.Config
	store, closeStore, err := newStore(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*conversation.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	closeStore()
}

func TestNewStoreClosesPool(t *testing.T) {
	dsn := os.Getenv("RIDESAFE_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("RIDESAFE_TEST_DB_DSN not set; skipping postgres store test")
	}
	var cfg config.Config
	cfg.DB.DSN = dsn
	store, closeStore, err := newStore(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background(), "+15550009999"); err != nil {
		t.Fatalf("load before close: %v", err)
	}
	closeStore()
	if _, err := store.Load(context.Background(), "+15550009999"); err == nil {
		t.Fatal("load succeeded after the pool was closed")
	}
}
