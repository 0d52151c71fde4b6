//go:build sqlite

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"neuroforge/internal/model"
)

func TestBuildTrainExportSQLite(t *testing.T) {
	ctx := context.Background()
	workdir := t.TempDir()
	dbPath := filepath.Join(workdir, "neuroforge.db")

	args := []string{
		"build",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-graph", "xor-net",
		"-layers", "2,4,1",
		"-seed", "11",
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("build command: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	args = []string{
		"train",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-graph", "xor-net",
		"-run-id", "run-1",
		"-epochs", "3",
		"-seed", "11",
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("train command: %v", err)
	}

	exportPath := filepath.Join(workdir, "graph.json")
	args = []string{
		"export",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-graph", "xor-net",
		"-out", exportPath,
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("export command: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var record model.GraphRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if record.ID != "xor-net" || len(record.Nodes) != 7 {
		t.Fatalf("exported record = %+v", record)
	}

	// History and stats read back from the same database.
	args = []string{"history", "-store", "sqlite", "-db-path", dbPath, "-run-id", "run-1"}
	if err := run(ctx, args); err != nil {
		t.Fatalf("history command: %v", err)
	}
	args = []string{"stats", "-store", "sqlite", "-db-path", dbPath, "-graph", "xor-net", "-run-id", "run-1"}
	if err := run(ctx, args); err != nil {
		t.Fatalf("stats command: %v", err)
	}
}

func TestTrainUnknownGraphSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "neuroforge.db")
	args := []string{
		"train",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-graph", "missing",
		"-epochs", "1",
	}
	if err := run(context.Background(), args); err == nil {
		t.Fatalf("train succeeded against a missing graph")
	}
}
