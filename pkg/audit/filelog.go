package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileLog mirrors a ChainLog onto disk, one JSON entry per line, so the
// chain survives restarts and can be verified out of process.
type FileLog struct {
	*ChainLog

	mu sync.Mutex
	f  *os.File
}

// OpenFileLog opens or creates the log at path. An existing file is
// verified and the chain resumes from its last entry.
func OpenFileLog(path string) (*FileLog, error) {
	entries, err := LoadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if !VerifyChain(entries) {
		return nil, fmt.Errorf("audit log %s fails chain verification", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileLog{ChainLog: resumeChainLog(entries), f: f}, nil
}

// Append records an event in memory and on disk. A write or sync
// failure is returned to the caller; the on-disk chain must never fall
// behind silently, since the next OpenFileLog would refuse the file.
func (l *FileLog) Append(kind EventKind, transferID, account, amount string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.ChainLog.Append(kind, transferID, account, amount)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode audit entry: %w", err)
	}
	if _, err := l.f.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write audit entry: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return nil, fmt.Errorf("sync audit log: %w", err)
	}
	return entry, nil
}

// Close releases the underlying file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// LoadFile reads a JSON-lines audit log written by FileLog.
func LoadFile(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

func resumeChainLog(entries []*Entry) *ChainLog {
	c := NewChainLog()
	if n := len(entries); n > 0 {
		c.seq = entries[n-1].Seq + 1
		c.previousHash = entries[n-1].Hash
		c.entries = append(c.entries, entries...)
	}
	return c
}
