package memory

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/coursegate/coursegate/testsuite"
)

var store *Directory

func TestMain(m *testing.M) {
	store = NewDirectory()

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
