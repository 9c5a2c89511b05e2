package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lotto-mcp/internal/draw"

	"github.com/rs/zerolog/log"
)

// CacheFile is the JSONL file name used under the cache directory.
const CacheFile = "draws.jsonl"

// LoadCache reads draw records from the JSONL cache. A missing file yields no records.
func LoadCache(cacheDir string) ([]draw.Record, error) {
	path := filepath.Join(cacheDir, CacheFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No cache yet, not an error
		}
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	defer file.Close()

	var records []draw.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r draw.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in cache")
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cache: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(records)).Msg("Loaded draws from cache")
	return records, nil
}

// SaveCache writes every draw of the snapshot to the JSONL cache via tmp file and rename.
func SaveCache(cacheDir string, snap *Snapshot) error {
	return WriteRecords(cacheDir, snap.Records())
}

// WriteRecords writes records to the JSONL cache via tmp file and rename.
func WriteRecords(cacheDir string, records []draw.Record) error {
	if len(records) == 0 {
		return nil
	}

	path := filepath.Join(cacheDir, CacheFile)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode draw: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(records)).Msg("Draw cache saved")
	return nil
}
