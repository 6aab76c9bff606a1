package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"orbitalPool/internal/model"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return count
}

func TestJsonlJournalAppends(t *testing.T) {
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "out", "trades.jsonl")
	snapshotsPath := filepath.Join(dir, "out", "snapshots.jsonl")
	journal := NewJsonlJournal(tradesPath, snapshotsPath)

	batch := []model.TradeRecord{
		{Run: "t", Sequence: 1, TokenIn: "USDC", TokenOut: "DAI", Success: true},
		{Run: "t", Sequence: 2, TokenIn: "DAI", TokenOut: "USDC", Success: true},
	}
	if err := journal.PutTradeBatch(batch); err != nil {
		t.Fatalf("put batch: %v", err)
	}
	if err := journal.PutTradeBatch(batch[:1]); err != nil {
		t.Fatalf("put second batch: %v", err)
	}
	if got := countLines(t, tradesPath); got != 3 {
		t.Fatalf("trade lines: got %d, want 3", got)
	}

	if err := journal.PutSnapshot(model.PoolSnapshot{Run: "t", Sequence: 3}); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}
	if got := countLines(t, snapshotsPath); got != 1 {
		t.Fatalf("snapshot lines: got %d, want 1", got)
	}

	file, err := os.Open(tradesPath)
	if err != nil {
		t.Fatalf("open trades: %v", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("no first line")
	}
	var decoded model.TradeRecord
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if decoded.Sequence != 1 || decoded.TokenIn != "USDC" {
		t.Fatalf("unexpected first record: %+v", decoded)
	}
}

func TestJsonlJournalSkipsEmptyPaths(t *testing.T) {
	journal := NewJsonlJournal("", "")
	if err := journal.PutTradeBatch([]model.TradeRecord{{Run: "t", Sequence: 1}}); err != nil {
		t.Fatalf("empty trades path should be a no-op: %v", err)
	}
	if err := journal.PutSnapshot(model.PoolSnapshot{Run: "t"}); err != nil {
		t.Fatalf("empty snapshots path should be a no-op: %v", err)
	}
}
