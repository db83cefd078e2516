package pebble

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/testsuite"
)

var store *Directory

func TestMain(m *testing.M) {
	dirname := os.Getenv("TEST_PEBBLE_DIR")

	if dirname == "" {
		_ = os.RemoveAll("./pebble-test")
		dirname = "./pebble-test"
	}

	var err error
	store, err = NewDirectory(dirname)
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

func TestRolesPrefixScan(t *testing.T) {
	ctx := context.Background()

	roles, err := store.Roles(ctx, "prof")
	require.NoError(t, err)
	require.Equal(t, []coursegate.RoleKind{coursegate.RoleCourseInstructor}, roles)

	roles, err = store.Roles(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, roles)
}
