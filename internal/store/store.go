// Package store persists the article set as a single JSON cache file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var ErrCacheWrite = errors.New("unable to write the cache file")

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Save replaces the cache file with the given article set.
func (s *Store) Save(articles ArticleSet) error {
	if articles == nil {
		articles = ArticleSet{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(articles); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrCacheWrite, err)
		}
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}

	return nil
}

// Load reads the cache file. A missing file is an empty set.
func (s *Store) Load() (ArticleSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ArticleSet{}, nil
		}
		return nil, err
	}

	var articles ArticleSet
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("invalid cache file %s: %w", s.path, err)
	}
	if articles == nil {
		articles = ArticleSet{}
	}

	return articles, nil
}

func (s *Store) ModTime() (time.Time, bool) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (s *Store) IsStale(now time.Time) bool {
	return IsStale(s.path, now)
}

// IsStale reports whether the cache file has to be regenerated: it doesn't exist or it was last
// modified exactly on the previous calendar day.
//
// Files from today or from two or more days ago are considered fresh.
func IsStale(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}

	modified := info.ModTime().In(now.Location())
	yesterday := now.AddDate(0, 0, -1)

	return sameDay(modified, yesterday)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
