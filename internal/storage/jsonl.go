package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"orbitalPool/internal/model"
)

// JsonlJournal writes trade records and pool snapshots to JSONL files.
type JsonlJournal struct {
	tradesPath    string
	snapshotsPath string
	mu            sync.Mutex
}

func NewJsonlJournal(tradesPath, snapshotsPath string) *JsonlJournal {
	return &JsonlJournal{tradesPath: tradesPath, snapshotsPath: snapshotsPath}
}

// PutTradeBatch appends a batch of trade records as JSON lines.
func (j *JsonlJournal) PutTradeBatch(trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	lines := make([]interface{}, len(trades))
	for i := range trades {
		lines[i] = trades[i]
	}
	return j.appendLines(j.tradesPath, lines)
}

// PutSnapshot appends a pool snapshot as one JSON line.
func (j *JsonlJournal) PutSnapshot(snapshot model.PoolSnapshot) error {
	return j.appendLines(j.snapshotsPath, []interface{}{snapshot})
}

func (j *JsonlJournal) appendLines(path string, records []interface{}) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
