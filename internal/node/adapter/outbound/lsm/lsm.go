package lsm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
	"github.com/anthanhphan/go-distributed-kv/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

var (
	ErrClosed        = errors.New("storage closed")
	ErrCorruptRecord = errors.New("corrupt record")
)

// segmentFile is the append handle of the active segment.
type segmentFile interface {
	io.WriteSeeker
	Sync() error
	Close() error
}

// IndexEntry stores the location of the latest record of a key.
type IndexEntry struct {
	SegmentID uint64
	Offset    int64
	Size      int64
	Seq       uint64
}

// LSMAdapter is a storage engine over segmented append-only logs and an
// in-memory index. Each record holds the full sibling list of a key; an
// empty list is a tombstone.
type LSMAdapter struct {
	name string

	indexMu      sync.RWMutex
	fileMu       sync.Mutex // serializes read-modify-write of keys and file rotation
	compactionMu sync.Mutex

	dirPath        string
	activeFile     segmentFile
	activeFileID   uint64
	nextSegmentID  uint64
	maxSegmentSize int64
	index          map[string]IndexEntry
	seq            uint64
	fsync          bool
	closed         bool

	compactionThreshold     int
	segmentsSinceCompaction int
	compactor               *resilience.WorkerPool
	compacting              atomic.Bool
}

// Ensure LSMAdapter implements port.StorageEngine.
var _ port.StorageEngine = (*LSMAdapter)(nil)

const (
	// DefaultMaxSegmentSize is 64MB
	DefaultMaxSegmentSize = 64 * 1024 * 1024
	SegmentPrefix         = "segment_"
	SegmentSuffix         = ".log"

	// Record: Key_Len (4) | Key (N) | Seq (8) | Payload_Len (4) | Payload (M) | CRC32 (4)
	recordOverhead = 4 + 8 + 4 + 4
)

// NewLSMAdapter opens the engine of one store under cfg.DataDir/<name> and
// rebuilds the index by replaying every segment.
func NewLSMAdapter(name string, cfg config.LSMConfig) (*LSMAdapter, error) {
	dir := filepath.Join(cfg.DataDir, name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	adapter := &LSMAdapter{
		name:                name,
		dirPath:             filepath.Clean(dir),
		index:               make(map[string]IndexEntry),
		maxSegmentSize:      DefaultMaxSegmentSize,
		fsync:               cfg.FSync,
		compactionThreshold: cfg.CompactionThreshold,
		compactor:           resilience.NewWorkerPool(1, 1),
	}

	if err := adapter.replayLogs(); err != nil {
		adapter.compactor.Close()
		return nil, fmt.Errorf("failed to replay logs: %w", err)
	}

	return adapter, nil
}

func (a *LSMAdapter) Name() string {
	return a.name
}

func (a *LSMAdapter) getSegmentPath(id uint64) string {
	return filepath.Join(a.dirPath, fmt.Sprintf("%s%05d%s", SegmentPrefix, id, SegmentSuffix))
}

func (a *LSMAdapter) listSegmentIDs(dir string) ([]uint64, error) {
	matches, err := filepath.Glob(filepath.Join(dir, SegmentPrefix+"*"+SegmentSuffix))
	if err != nil {
		return nil, err
	}

	var ids []uint64
	for _, m := range matches {
		var id uint64
		if _, err := fmt.Sscanf(filepath.Base(m), SegmentPrefix+"%d"+SegmentSuffix, &id); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (a *LSMAdapter) openActiveFileLocked() error {
	// G304: path is constructed from internal data dir and ID
	file, err := os.OpenFile(a.getSegmentPath(a.activeFileID), os.O_RDWR|os.O_CREATE, 0600) // #nosec G304
	if err != nil {
		return err
	}
	// Seek to end to be ready for append
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return err
	}
	a.activeFile = file
	return nil
}

// replayLogs reads all segment files and rebuilds the index. Segments may be
// replayed in any order: the record with the highest sequence wins.
func (a *LSMAdapter) replayLogs() error {
	segmentIDs, err := a.listSegmentIDs(a.dirPath)
	if err != nil {
		return err
	}

	tombstones := make(map[string]uint64)
	for _, id := range segmentIDs {
		if err := a.replaySegment(id, tombstones); err != nil {
			return err
		}
	}

	a.activeFileID = 1
	if n := len(segmentIDs); n > 0 {
		a.activeFileID = segmentIDs[n-1]
	}
	a.nextSegmentID = a.activeFileID + 1

	a.fileMu.Lock()
	defer a.fileMu.Unlock()
	return a.openActiveFileLocked()
}

func (a *LSMAdapter) replaySegment(id uint64, tombstones map[string]uint64) error {
	path := a.getSegmentPath(id)
	file, err := os.OpenFile(path, os.O_RDWR, 0600) // #nosec G304
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	reader := bufio.NewReader(file)
	offset := int64(0)
	truncated := false

	for {
		key, seq, payload, size, err := readRecord(reader, a.maxSegmentSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorruptRecord) {
				truncated = true
				break
			}
			return fmt.Errorf("failed to read segment %d: %w", id, err)
		}

		a.replayRecord(string(key), IndexEntry{SegmentID: id, Offset: offset, Size: size, Seq: seq}, len(payload) == 0, tombstones)
		offset += size
	}

	if truncated {
		if err := file.Truncate(offset); err != nil {
			return fmt.Errorf("failed to truncate partial segment %d: %w", id, err)
		}
		logger.Warnw("Truncated partial segment tail during replay", "store", a.name, "segment_id", id, "valid_bytes", offset)
	}

	return nil
}

func (a *LSMAdapter) replayRecord(key string, entry IndexEntry, tombstone bool, tombstones map[string]uint64) {
	if entry.Seq > a.seq {
		a.seq = entry.Seq
	}
	if cur, ok := a.index[key]; ok && cur.Seq > entry.Seq {
		return
	}
	if ts, ok := tombstones[key]; ok && ts > entry.Seq {
		return
	}

	if tombstone {
		delete(a.index, key)
		tombstones[key] = entry.Seq
		return
	}
	a.index[key] = entry
}

// readRecord decodes the next record from r. It returns io.EOF only at a
// clean record boundary.
func readRecord(r io.Reader, maxSegmentSize int64) (key []byte, seq uint64, payload []byte, size int64, err error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, nil, 0, err
	}
	keyLen := int64(binary.BigEndian.Uint32(header))
	if keyLen <= 0 || keyLen > domain.MaxKeySize {
		return nil, 0, nil, 0, ErrCorruptRecord
	}

	body := make([]byte, keyLen+8+4)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, 0, nil, 0, unexpected(err)
	}
	payloadLen := int64(binary.BigEndian.Uint32(body[keyLen+8:]))
	if payloadLen > maxSegmentSize*4 {
		return nil, 0, nil, 0, ErrCorruptRecord
	}

	rest := make([]byte, payloadLen+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, 0, nil, 0, unexpected(err)
	}

	h := crc32.NewIEEE()
	_, _ = h.Write(header)
	_, _ = h.Write(body)
	_, _ = h.Write(rest[:payloadLen])
	if h.Sum32() != binary.BigEndian.Uint32(rest[payloadLen:]) {
		return nil, 0, nil, 0, ErrCorruptRecord
	}

	key = body[:keyLen]
	seq = binary.BigEndian.Uint64(body[keyLen : keyLen+8])
	payload = rest[:payloadLen]
	return key, seq, payload, 4 + int64(len(body)) + int64(len(rest)), nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func encodeRecord(key []byte, seq uint64, payload []byte) []byte {
	buf := make([]byte, 0, recordOverhead+len(key)+len(payload))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(key))) // #nosec G115
	buf = append(buf, key...)
	buf = binary.BigEndian.AppendUint64(buf, seq)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload))) // #nosec G115
	buf = append(buf, payload...)
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// readEntry reads the raw record an index entry points to.
func (a *LSMAdapter) readEntry(entry IndexEntry) ([]byte, error) {
	f, err := os.Open(a.getSegmentPath(entry.SegmentID)) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw := make([]byte, entry.Size)
	if _, err := f.ReadAt(raw, entry.Offset); err != nil {
		return nil, err
	}
	return raw, nil
}

func (a *LSMAdapter) readSiblings(key string) ([]domain.Versioned, error) {
	for attempt := 0; ; attempt++ {
		a.indexMu.RLock()
		entry, exists := a.index[key]
		a.indexMu.RUnlock()
		if !exists {
			return nil, nil
		}

		raw, err := a.readEntry(entry)
		if errors.Is(err, os.ErrNotExist) && attempt == 0 {
			// The segment was replaced by a compaction since the index lookup.
			continue
		}
		if err != nil {
			return nil, err
		}

		_, _, payload, _, err := readRecord(bytes.NewReader(raw), a.maxSegmentSize)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record of segment %d: %w", entry.SegmentID, err)
		}
		return wire.DecodeVersionedList(payload)
	}
}

// Get returns every version stored for key.
func (a *LSMAdapter) Get(ctx context.Context, key domain.Key) ([]domain.Versioned, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	siblings, err := a.readSiblings(string(key))
	if err != nil {
		return nil, err
	}
	if siblings == nil {
		siblings = []domain.Versioned{}
	}
	return siblings, nil
}

func (a *LSMAdapter) Put(ctx context.Context, key domain.Key, value domain.Versioned) error {
	outcome, err := a.Apply(ctx, key, value)
	if err != nil {
		return err
	}
	if outcome == domain.Dominated {
		return &domain.ObsoleteVersionError{Key: key.Clone(), Version: value.Version.Clone()}
	}
	return nil
}

// Apply appends the new sibling list of key unless a stored sibling is
// equal to or newer than value.
func (a *LSMAdapter) Apply(ctx context.Context, key domain.Key, value domain.Versioned) (domain.ApplyOutcome, error) {
	if err := key.Validate(); err != nil {
		return domain.Applied, err
	}
	if err := value.Validate(); err != nil {
		return domain.Applied, err
	}

	a.fileMu.Lock()
	if a.closed {
		a.fileMu.Unlock()
		return domain.Applied, ErrClosed
	}

	current, err := a.readSiblings(string(key))
	if err != nil {
		a.fileMu.Unlock()
		return domain.Applied, err
	}

	siblings, outcome := domain.ApplyVersion(current, value)
	if outcome == domain.Dominated {
		a.fileMu.Unlock()
		return outcome, nil
	}

	compact, err := a.appendLocked(key, wire.EncodeVersionedList(siblings))
	a.fileMu.Unlock()
	if err != nil {
		return domain.Applied, err
	}
	if compact {
		a.scheduleCompaction()
	}
	return domain.Applied, nil
}

// Delete removes the versions of key not newer than version. Removing the
// last version writes a tombstone. Space is reclaimed by compaction.
func (a *LSMAdapter) Delete(ctx context.Context, key domain.Key, version domain.VectorClock) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	a.fileMu.Lock()
	if a.closed {
		a.fileMu.Unlock()
		return false, ErrClosed
	}

	current, err := a.readSiblings(string(key))
	if err != nil {
		a.fileMu.Unlock()
		return false, err
	}

	kept, removed := domain.RemoveVersions(current, version)
	if !removed {
		a.fileMu.Unlock()
		return false, nil
	}

	var payload []byte
	if len(kept) > 0 {
		payload = wire.EncodeVersionedList(kept)
	}
	compact, err := a.appendLocked(key, payload)
	a.fileMu.Unlock()
	if err != nil {
		return false, err
	}
	if compact {
		a.scheduleCompaction()
	}
	return true, nil
}

// appendLocked writes a record to the active segment and publishes it in the
// index. It reports whether enough segments were sealed to warrant a
// compaction. fileMu must be held.
func (a *LSMAdapter) appendLocked(key domain.Key, payload []byte) (bool, error) {
	if a.activeFile == nil {
		return false, ErrClosed
	}

	offset, err := a.activeFile.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}

	a.seq++
	record := encodeRecord(key, a.seq, payload)
	if _, err := a.activeFile.Write(record); err != nil {
		return false, err
	}
	// A record that did not reach the disk is not published in the index.
	if a.fsync {
		if err := a.activeFile.Sync(); err != nil {
			return false, fmt.Errorf("failed to sync segment %d: %w", a.activeFileID, err)
		}
	}

	a.indexMu.Lock()
	if len(payload) == 0 {
		delete(a.index, string(key))
	} else {
		a.index[string(key)] = IndexEntry{
			SegmentID: a.activeFileID,
			Offset:    offset,
			Size:      int64(len(record)),
			Seq:       a.seq,
		}
	}
	a.indexMu.Unlock()

	// Check for segment rotation
	if offset+int64(len(record)) <= a.maxSegmentSize {
		return false, nil
	}
	if err := a.rotateLocked(); err != nil {
		logger.Warnw("Segment rotation failed", "store", a.name, "error", err.Error())
		return false, nil
	}
	a.segmentsSinceCompaction++
	return a.compactionThreshold > 0 && a.segmentsSinceCompaction >= a.compactionThreshold, nil
}

func (a *LSMAdapter) rotateLocked() error {
	if a.activeFile != nil {
		_ = a.activeFile.Sync()
		_ = a.activeFile.Close()
		a.activeFile = nil
	}
	a.activeFileID = a.nextSegmentID
	a.nextSegmentID++
	return a.openActiveFileLocked()
}

// scheduleCompaction runs Compact on the background worker unless one is
// already pending.
func (a *LSMAdapter) scheduleCompaction() {
	if !a.compacting.CompareAndSwap(false, true) {
		return
	}
	err := a.compactor.TrySubmit(func() {
		defer a.compacting.Store(false)
		if err := a.Compact(); err != nil && !errors.Is(err, ErrClosed) {
			logger.Warnw("Background compaction failed", "store", a.name, "error", err.Error())
		}
	})
	if err != nil {
		a.compacting.Store(false)
	}
}

// Len returns the number of live keys.
func (a *LSMAdapter) Len() int {
	a.indexMu.RLock()
	defer a.indexMu.RUnlock()
	return len(a.index)
}

// Close waits for a running compaction and closes the active segment.
func (a *LSMAdapter) Close() error {
	a.fileMu.Lock()
	if a.closed {
		a.fileMu.Unlock()
		return nil
	}
	a.closed = true
	a.fileMu.Unlock()

	a.compactor.Close()
	a.compactor.Wait()

	a.fileMu.Lock()
	defer a.fileMu.Unlock()
	if a.activeFile != nil {
		err := a.activeFile.Close()
		a.activeFile = nil
		return err
	}
	return nil
}
