package widget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// FilePlayer "plays" audio by writing each clip as an MP3 under Dir.
type FilePlayer struct {
	Dir string
	// Written, when set, receives the path of each saved clip.
	Written func(path string)

	seq atomic.Int64
}

// Play implements AudioPlayer.
func (p *FilePlayer) Play(_ context.Context, audio []byte) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	name := fmt.Sprintf("reply-%s-%03d.mp3", time.Now().Format("20060102-150405"), p.seq.Add(1))
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	if p.Written != nil {
		p.Written(path)
	}
	return nil
}
