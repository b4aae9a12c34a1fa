// Package cache is a content-addressed flat-file store for pipeline
// results, keyed by (subject id, profile hash).
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"vidsum/pkg/log"
)

const (
	latestFile   = "result_latest.json"
	metaFile     = "meta.json"
	hashLength   = 12
	resultPrefix = "result_"
)

// Store persists pipeline results under root/<subjectID>/. Reads of
// missing or corrupt entries report absence, never an error: the
// coordinator treats any cache problem as a miss.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// ProfileHash computes the stable short hash of a profile: SHA-1 over the
// canonical key-sorted JSON serialization, truncated to 12 hex characters.
// Field order in the struct never affects the result.
func ProfileHash(profile Profile) (string, error) {
	canonical, err := canonicalJSON(profile)
	if err != nil {
		return "", fmt.Errorf("canonicalize profile: %w", err)
	}
	sum := sha1.Sum(canonical)
	return hex.EncodeToString(sum[:])[:hashLength], nil
}

// canonicalJSON round-trips v through a map so keys marshal sorted.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

type meta struct {
	Profiles []string `json:"profiles"`
}

// Save writes the profile-addressed entry, overwrites the subject's latest
// alias with the same content, and records the profile hash in the
// subject's meta index (set semantics). Returns the entry path.
func (s *Store) Save(subjectID string, profile Profile, payload any) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("subject id is required")
	}

	hash, err := ProfileHash(profile)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	entry := Entry{Profile: profile, Data: data}
	blob, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cache entry: %w", err)
	}

	dir := s.subjectDir(subjectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	resultPath := filepath.Join(dir, resultPrefix+hash+".json")
	if err := os.WriteFile(resultPath, blob, 0o644); err != nil {
		return "", fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, latestFile), blob, 0o644); err != nil {
		return "", fmt.Errorf("write latest alias: %w", err)
	}
	if err := s.appendProfileHash(dir, hash); err != nil {
		return "", err
	}

	return resultPath, nil
}

// appendProfileHash adds hash to the subject's meta index unless already
// present. A corrupt meta file is reset rather than failing the save.
func (s *Store) appendProfileHash(dir, hash string) error {
	metaPath := filepath.Join(dir, metaFile)

	var m meta
	if raw, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Warn("resetting corrupt cache meta %s: %v", metaPath, err)
			m = meta{}
		}
	}

	if slices.Contains(m.Profiles, hash) {
		return nil
	}
	m.Profiles = append(m.Profiles, hash)

	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache meta: %w", err)
	}
	if err := os.WriteFile(metaPath, blob, 0o644); err != nil {
		return fmt.Errorf("write cache meta: %w", err)
	}
	return nil
}

// LoadLatest returns the most recently saved entry for a subject
// regardless of profile. The coarse cache-hit path.
func (s *Store) LoadLatest(subjectID string) (*Entry, bool) {
	if subjectID == "" {
		return nil, false
	}
	return s.readEntry(filepath.Join(s.subjectDir(subjectID), latestFile))
}

// LoadByProfile recomputes the profile hash and looks up the exactly
// matching entry. The precise cache-hit path.
func (s *Store) LoadByProfile(subjectID string, profile Profile) (*Entry, bool) {
	if subjectID == "" {
		return nil, false
	}
	hash, err := ProfileHash(profile)
	if err != nil {
		log.Warn("cache lookup skipped, unhashable profile: %v", err)
		return nil, false
	}
	return s.readEntry(filepath.Join(s.subjectDir(subjectID), resultPrefix+hash+".json"))
}

// KnownProfiles lists the profile hashes ever written for a subject.
func (s *Store) KnownProfiles(subjectID string) []string {
	raw, err := os.ReadFile(filepath.Join(s.subjectDir(subjectID), metaFile))
	if err != nil {
		return nil
	}
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m.Profiles
}

func (s *Store) readEntry(path string) (*Entry, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Warn("treating corrupt cache entry %s as miss: %v", path, err)
		return nil, false
	}
	return &entry, true
}

func (s *Store) subjectDir(subjectID string) string {
	return filepath.Join(s.root, subjectID)
}
