package sqlite

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/coursegate/coursegate/testsuite"
)

var store *Directory

func TestMain(m *testing.M) {
	filepath := os.Getenv("TEST_SQLITE_FILE")

	if filepath == "" {
		_ = os.Remove("./test.db")
		filepath = "./test.db"
	}

	var err error
	store, err = NewDirectory(filepath)
	if err != nil {
		log.Fatalf("Directory creation failed: %v", err)
	}

	if err := testsuite.Load(context.Background(), store); err != nil {
		log.Fatalf("Failed loading data into directory: %v", err)
	}

	code := m.Run()

	store.Close()

	os.Exit(code)
}

func TestDirectory(t *testing.T) {
	testsuite.Run(t, store)
}
