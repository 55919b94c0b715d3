package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/model"
)

// JsonlStorage appends launch records to a JSONL file, one typed envelope
// per line.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

type envelope struct {
	Type   string      `json:"type"`
	Record interface{} `json:"record"`
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) PutLaunch(record model.LaunchRecord) error {
	return s.append([]envelope{{Type: "launch", Record: record}})
}

func (s *JsonlStorage) PutMigration(record model.MigrationRecord) error {
	return s.append([]envelope{{Type: "migration", Record: record}})
}

func (s *JsonlStorage) PutPlanOps(ops []model.PlanOpRecord) error {
	lines := make([]envelope, len(ops))
	for i, op := range ops {
		lines[i] = envelope{Type: "plan_op", Record: op}
	}
	return s.append(lines)
}

func (s *JsonlStorage) PutSweeps(sweeps []model.SweepRecord) error {
	lines := make([]envelope, len(sweeps))
	for i, sweep := range sweeps {
		lines[i] = envelope{Type: "sweep", Record: sweep}
	}
	return s.append(lines)
}

// append writes a batch of envelopes as JSON lines.
func (s *JsonlStorage) append(lines []envelope) error {
	if len(lines) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, env := range lines {
		line, err := json.Marshal(env)
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
