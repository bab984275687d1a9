package analyzer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// DefaultCacheDirName is created inside the project root.
const DefaultCacheDirName = ".xcoder-cache"

const cacheMaxAge = 7 * 24 * time.Hour

// CacheEntry wraps cached data with the source file metadata used for
// invalidation.
type CacheEntry struct {
	Data      []string
	Timestamp time.Time
	FileSize  int64
	ModTime   time.Time
}

// CacheManager stores per-file analysis results on disk. Entries are
// invalidated when the source file's size or modification time changes.
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex
}

// NewCacheManager creates the cache directory if needed. An empty cacheDir
// defaults to DefaultCacheDirName under the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	gob.Register([]string{})

	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, DefaultCacheDirName)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cm := &CacheManager{cacheDir: cacheDir}

	go cm.cleanExpired(cacheMaxAge)

	return cm, nil
}

func (cm *CacheManager) generateCacheKey(filePath string) string {
	return fmt.Sprintf("%016x.cache", xxh3.HashString(filePath))
}

func (cm *CacheManager) cachePath(cacheKey string) string {
	return filepath.Join(cm.cacheDir, cacheKey)
}

// GetSummaryCache returns cached analysis parts for filePath, invalidating
// the entry if the file changed since it was cached.
func (cm *CacheManager) GetSummaryCache(filePath string) ([]string, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	cachePath := cm.cachePath(cm.generateCacheKey(filePath))

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, false
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil || !fileInfo.ModTime().Equal(entry.ModTime) || fileInfo.Size() != entry.FileSize {
		os.Remove(cachePath)
		return nil, false
	}

	return entry.Data, true
}

// SetSummaryCache stores analysis parts for filePath together with the file
// metadata used for later invalidation.
func (cm *CacheManager) SetSummaryCache(filePath string, parts []string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	entry := CacheEntry{
		Data:      parts,
		Timestamp: time.Now(),
		FileSize:  fileInfo.Size(),
		ModTime:   fileInfo.ModTime(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.WriteFile(cm.cachePath(cm.generateCacheKey(filePath)), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes every cache entry.
func (cm *CacheManager) Clear() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		os.Remove(filepath.Join(cm.cacheDir, entry.Name()))
	}

	return nil
}

func (cm *CacheManager) cleanExpired(maxAge time.Duration) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			continue
		}

		cachePath := filepath.Join(cm.cacheDir, dirEntry.Name())
		data, err := os.ReadFile(cachePath)
		if err != nil {
			continue
		}

		var entry CacheEntry
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
			os.Remove(cachePath)
			continue
		}
		if entry.Timestamp.Before(cutoff) {
			os.Remove(cachePath)
		}
	}
}
