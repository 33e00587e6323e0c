// Package recording stores session audio recordings on disk. It is a
// collaborator of the session store: saving or deleting a recording flips the
// session's recording flag through a narrow update that never touches
// exchanges or scores.
package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	fileExtension = ".webm"
	contentType   = "audio/webm"

	// DefaultKind is used when an upload does not specify a recording kind.
	DefaultKind = "full"
)

// ErrInvalidName rejects session IDs or kinds that could escape the
// recordings directory.
var ErrInvalidName = errors.New("invalid recording name component")

var nameComponentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Info describes one stored recording.
type Info struct {
	Filename  string    `json:"filename"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Timestamp string    `json:"timestamp"`
	Size      int64     `json:"size"`
	SavedAt   time.Time `json:"saved_at"`
}

// Recording is a retrieved recording with its payload.
type Recording struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store persists recordings as files under a single directory.
type Store struct {
	dir string
}

// NewStore creates the recordings directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create recordings directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes a recording for a session and kind.
func (s *Store) Save(sessionID, kind string, data []byte) (*Info, error) {
	if err := validateComponents(sessionID, kind); err != nil {
		return nil, err
	}

	now := time.Now()
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format(time.RFC3339))
	filename := fmt.Sprintf("%s_%s_%s%s", sessionID, kind, stamp, fileExtension)

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return nil, fmt.Errorf("write recording: %w", err)
	}

	return &Info{
		Filename:  filename,
		SessionID: sessionID,
		Kind:      kind,
		Timestamp: stamp,
		Size:      int64(len(data)),
		SavedAt:   now,
	}, nil
}

// Get returns the recording for a session and kind, or nil if none exists.
func (s *Store) Get(sessionID, kind string) (*Recording, error) {
	if err := validateComponents(sessionID, kind); err != nil {
		return nil, err
	}

	filename, err := s.find(sessionID, kind)
	if err != nil || filename == "" {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}

	return &Recording{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// List returns all recordings stored for a session.
func (s *Store) List(sessionID string) ([]Info, error) {
	if err := validateComponents(sessionID, DefaultKind); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, sessionID+"_") || !strings.HasSuffix(name, fileExtension) {
			continue
		}

		rest := strings.TrimSuffix(strings.TrimPrefix(name, sessionID+"_"), fileExtension)
		parts := strings.SplitN(rest, "_", 2)
		info := Info{Filename: name, SessionID: sessionID, Kind: DefaultKind}
		if len(parts) > 0 && parts[0] != "" {
			info.Kind = parts[0]
		}
		if len(parts) > 1 {
			info.Timestamp = parts[1]
		}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
			info.SavedAt = fi.ModTime()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete removes the recording for a session and kind. Returns false if no
// matching recording exists.
func (s *Store) Delete(sessionID, kind string) (bool, error) {
	if err := validateComponents(sessionID, kind); err != nil {
		return false, err
	}

	filename, err := s.find(sessionID, kind)
	if err != nil {
		return false, err
	}
	if filename == "" {
		return false, nil
	}

	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		return false, fmt.Errorf("remove recording: %w", err)
	}
	return true, nil
}

// URL returns the API locator stored on the session record.
func (s *Store) URL(sessionID, kind string) string {
	return "/api/recordings/" + sessionID + "/" + kind
}

func (s *Store) find(sessionID, kind string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read recordings directory: %w", err)
	}

	prefix := sessionID + "_" + kind + "_"
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, fileExtension) {
			return name, nil
		}
	}
	return "", nil
}

func validateComponents(sessionID, kind string) error {
	if !nameComponentPattern.MatchString(sessionID) || !nameComponentPattern.MatchString(kind) {
		return ErrInvalidName
	}
	return nil
}
