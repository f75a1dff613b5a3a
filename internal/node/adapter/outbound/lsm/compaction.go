package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthanhphan/gosdk/logger"
)

// Compact rewrites the live records of every sealed segment into fresh
// segments and removes the sealed ones. Records keep their sequence numbers,
// so replay order between compacted and newer segments does not matter.
func (a *LSMAdapter) Compact() error {
	a.compactionMu.Lock()
	defer a.compactionMu.Unlock()

	// Rotate active segment so new writes land outside the compaction snapshot.
	a.fileMu.Lock()
	if a.closed {
		a.fileMu.Unlock()
		return ErrClosed
	}
	if err := a.rotateLocked(); err != nil {
		a.fileMu.Unlock()
		return fmt.Errorf("failed to open new active file during compaction: %w", err)
	}
	cutoff := a.activeFileID
	a.segmentsSinceCompaction = 0
	a.fileMu.Unlock()

	logger.Infow("Compaction started", "store", a.name, "sealed_below", cutoff)

	compactPath := filepath.Join(a.dirPath, "compact")
	if err := os.RemoveAll(compactPath); err != nil {
		return err
	}
	if err := os.MkdirAll(compactPath, 0750); err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(compactPath) }()

	// Snapshot only segments sealed before rotation.
	a.indexMu.RLock()
	snapshot := make(map[string]IndexEntry)
	for key, entry := range a.index {
		if entry.SegmentID < cutoff {
			snapshot[key] = entry
		}
	}
	a.indexMu.RUnlock()

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	newIndex := make(map[string]IndexEntry, len(snapshot))
	tempID := uint64(1)
	f, err := createTempSegment(compactPath, tempID)
	if err != nil {
		return err
	}

	offset := int64(0)
	for _, key := range keys {
		entry := snapshot[key]
		raw, err := a.readEntry(entry)
		if err != nil {
			logger.Warnw("Compaction skipped unreadable record", "store", a.name, "segment_id", entry.SegmentID, "error", err.Error())
			continue
		}
		if _, err := f.Write(raw); err != nil {
			_ = f.Close()
			return err
		}

		newIndex[key] = IndexEntry{SegmentID: tempID, Offset: offset, Size: entry.Size, Seq: entry.Seq}
		offset += entry.Size

		if offset > a.maxSegmentSize {
			if err := f.Close(); err != nil {
				return err
			}
			tempID++
			if f, err = createTempSegment(compactPath, tempID); err != nil {
				return err
			}
			offset = 0
		}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	a.fileMu.Lock()
	a.indexMu.Lock()

	// Move compacted segments to fresh permanent IDs.
	tempIDs, _ := a.listSegmentIDs(compactPath)
	for _, id := range tempIDs {
		destID := a.nextSegmentID
		a.nextSegmentID++
		src := filepath.Join(compactPath, fmt.Sprintf("%s%05d%s", SegmentPrefix, id, SegmentSuffix))
		if err := os.Rename(src, a.getSegmentPath(destID)); err != nil {
			a.indexMu.Unlock()
			a.fileMu.Unlock()
			return err
		}
		for k, v := range newIndex {
			if v.SegmentID == id {
				v.SegmentID = destID
				newIndex[k] = v
			}
		}
	}

	// Keep whatever changed while the snapshot was copied.
	for key, compacted := range newIndex {
		live, exists := a.index[key]
		if !exists {
			delete(newIndex, key)
			continue
		}
		if live.Seq != compacted.Seq {
			newIndex[key] = live
		}
	}
	for key, live := range a.index {
		if _, exists := newIndex[key]; !exists {
			newIndex[key] = live
		}
	}
	a.index = newIndex

	referenced := make(map[uint64]struct{}, len(a.index)+1)
	for _, entry := range a.index {
		referenced[entry.SegmentID] = struct{}{}
	}

	a.indexMu.Unlock()
	a.fileMu.Unlock()

	// Delete sealed segments nothing points at anymore. Segments at or above
	// the cutoff may hold tombstones and are left alone.
	segmentIDs, _ := a.listSegmentIDs(a.dirPath)
	for _, id := range segmentIDs {
		if id >= cutoff {
			continue
		}
		if _, keep := referenced[id]; keep {
			continue
		}
		_ = os.Remove(a.getSegmentPath(id))
	}

	logger.Infow("Compaction finished", "store", a.name, "sealed_below", cutoff, "live_keys", len(newIndex))
	return nil
}

func createTempSegment(dir string, id uint64) (*os.File, error) {
	path := filepath.Clean(filepath.Join(dir, fmt.Sprintf("%s%05d%s", SegmentPrefix, id, SegmentSuffix)))
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
}
