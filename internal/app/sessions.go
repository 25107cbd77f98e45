package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"go.aimuz.me/voxtype/audiocapture"
	"go.aimuz.me/voxtype/history"
	"go.aimuz.me/voxtype/internal/types"
	"go.aimuz.me/voxtype/streaming"
)

// SessionAdapter persists finished sessions off the coordinator goroutine.
type SessionAdapter struct {
	mu       sync.RWMutex
	store    *history.Store
	debugDir string
	pending  sync.WaitGroup
}

// Open opens the history store in dir. An empty dir keeps history in memory.
func (sa *SessionAdapter) Open(dir string, opts history.Options) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if sa.store != nil {
		return fmt.Errorf("history already open")
	}
	store, err := history.Open(dir, opts)
	if err != nil {
		return err
	}
	sa.store = store
	slog.Info("history initialized", "path", dir, "retention", opts.Retention, "keep_audio", opts.KeepAudio)
	return nil
}

// SetDebugDir makes every session's audio also land in dir as a WAV file.
func (sa *SessionAdapter) SetDebugDir(dir string) {
	sa.mu.Lock()
	sa.debugDir = dir
	sa.mu.Unlock()
}

// Record handles a session report in the background and calls onSaved with
// the stored entry.
func (sa *SessionAdapter) Record(r streaming.SessionReport, onSaved func(types.SessionInfo)) {
	sa.pending.Add(1)
	go func() {
		defer sa.pending.Done()
		if info, ok := sa.record(r); ok && onSaved != nil {
			onSaved(info)
		}
	}()
}

func (sa *SessionAdapter) record(r streaming.SessionReport) (types.SessionInfo, bool) {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	if sa.debugDir != "" && len(r.Audio) > 0 {
		path := filepath.Join(sa.debugDir, r.ID+".wav")
		if err := audiocapture.WriteWAV(path, r.Audio, audiocapture.TargetSampleRate); err != nil {
			slog.Error("write debug audio", "path", path, "error", err)
		} else {
			slog.Debug("debug audio written", "path", path)
		}
	}

	if sa.store == nil || (r.Final == "" && r.Typed == "") {
		return types.SessionInfo{}, false
	}

	text := r.Final
	if text == "" {
		text = r.Typed
	}
	entry := history.Entry{
		ID:        r.ID,
		Text:      text,
		Typed:     r.Typed,
		StartedAt: r.Started,
		EndedAt:   r.Ended,
	}
	if err := sa.store.Save(entry, r.Audio); err != nil {
		slog.Error("save session", "id", r.ID, "error", err)
		return types.SessionInfo{}, false
	}

	saved, err := sa.store.Get(r.ID)
	if err != nil {
		slog.Error("read saved session", "id", r.ID, "error", err)
		return types.SessionInfo{}, false
	}
	return sessionInfo(saved), true
}

// List returns up to limit recent sessions, newest first.
func (sa *SessionAdapter) List(limit int) ([]types.SessionInfo, error) {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	if sa.store == nil {
		return []types.SessionInfo{}, nil
	}
	entries, err := sa.store.List(limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.SessionInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, sessionInfo(e))
	}
	return out, nil
}

// Delete removes a session from history.
func (sa *SessionAdapter) Delete(id string) error {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	if sa.store == nil {
		return fmt.Errorf("history disabled")
	}
	return sa.store.Delete(id)
}

// Close waits for pending writes and closes the store.
func (sa *SessionAdapter) Close() error {
	sa.pending.Wait()

	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.store == nil {
		return nil
	}
	err := sa.store.Close()
	sa.store = nil
	return err
}

func sessionInfo(e history.Entry) types.SessionInfo {
	return types.SessionInfo{
		ID:        e.ID,
		Text:      e.Text,
		Language:  e.Language,
		StartedAt: e.StartedAt.UnixMilli(),
		Duration:  e.Duration().Milliseconds(),
		HasAudio:  e.HasAudio,
	}
}
