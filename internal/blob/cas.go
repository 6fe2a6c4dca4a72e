package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"album/internal/domain"
	"album/internal/metrics"
)

// LocalCAS keeps blobs on the local disk, addressed by the SHA-256 of their
// bytes and compressed with zstd. Identical uploads share one chunk; a
// reference count beside the chunk keeps it alive until its last item goes.
type LocalCAS struct {
	dir     string
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu orders reference count updates; chunk reads need no lock
	mu sync.Mutex

	encoderPool sync.Pool
	decoderPool sync.Pool
}

// NewLocalCAS creates a blob store rooted at dir. Locators are
// baseURL + "/static/" + key.
func NewLocalCAS(dir, baseURL string, logger *slog.Logger, m *metrics.Metrics) (*LocalCAS, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cas := &LocalCAS{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: m,
	}

	cas.encoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
			return enc
		},
	}
	cas.decoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}

	return cas, nil
}

// Put stores the content and returns its locator
func (c *LocalCAS) Put(ctx context.Context, r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := contentHash(data)
	key := hash + strings.ToLower(filepath.Ext(name))

	c.mu.Lock()
	defer c.mu.Unlock()

	// Read before writing: once the chunk exists, a missing refs file means one owner
	refs, err := c.readRefs(hash)
	if err != nil {
		return "", &domain.DependencyError{Dependency: "blob", Err: err}
	}

	chunkPath := c.chunkPath(hash)
	if !fileExists(chunkPath) {
		// A chunk written by this call has no earlier owner, even beside a stale refs file
		refs = 0
		if err := c.writeChunk(chunkPath, c.compress(data)); err != nil {
			return "", &domain.DependencyError{Dependency: "blob", Err: err}
		}
	}
	if err := c.writeRefs(hash, refs+1); err != nil {
		return "", &domain.DependencyError{Dependency: "blob", Err: err}
	}

	c.metrics.RecordBlobStored(int64(len(data)))
	c.logger.Debug("blob stored", "key", key, "bytes", len(data), "refs", refs+1)

	return c.baseURL + "/static/" + key, nil
}

// Delete drops one reference to the chunk behind locator and removes the
// chunk when none remain.
func (c *LocalCAS) Delete(ctx context.Context, locator string) error {
	hash, ok := parseKey(path.Base(locator))
	if !ok {
		c.logger.Debug("ignoring delete of foreign locator", "locator", locator)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	refs, err := c.readRefs(hash)
	if err != nil {
		return &domain.DependencyError{Dependency: "blob", Err: err}
	}

	if refs > 1 {
		if err := c.writeRefs(hash, refs-1); err != nil {
			return &domain.DependencyError{Dependency: "blob", Err: err}
		}
		return nil
	}

	if err := os.Remove(c.chunkPath(hash)); err != nil && !os.IsNotExist(err) {
		return &domain.DependencyError{Dependency: "blob", Err: fmt.Errorf("delete chunk: %w", err)}
	}
	if err := os.Remove(c.refsPath(hash)); err != nil && !os.IsNotExist(err) {
		return &domain.DependencyError{Dependency: "blob", Err: fmt.Errorf("delete refs: %w", err)}
	}
	return nil
}

// Open returns the decompressed content stored under key
func (c *LocalCAS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	hash, ok := parseKey(key)
	if !ok {
		return nil, ErrNotFound
	}

	compressed, err := os.ReadFile(c.chunkPath(hash))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &domain.DependencyError{Dependency: "blob", Err: fmt.Errorf("read chunk: %w", err)}
	}

	data, err := c.decompress(compressed)
	if err != nil {
		return nil, &domain.DependencyError{Dependency: "blob", Err: fmt.Errorf("decompress chunk: %w", err)}
	}
	if contentHash(data) != hash {
		return nil, &domain.DependencyError{Dependency: "blob", Err: fmt.Errorf("chunk hash mismatch for %s", hash)}
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Refs returns the reference count of the chunk behind locator
func (c *LocalCAS) Refs(locator string) int {
	hash, ok := parseKey(path.Base(locator))
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	refs, _ := c.readRefs(hash)
	return refs
}

func (c *LocalCAS) writeChunk(chunkPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(chunkPath), 0755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}
	return writeAtomic(chunkPath, data)
}

func (c *LocalCAS) readRefs(hash string) (int, error) {
	raw, err := os.ReadFile(c.refsPath(hash))
	if os.IsNotExist(err) {
		// A chunk written before reference counting has one owner
		if fileExists(c.chunkPath(hash)) {
			return 1, nil
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read refs: %w", err)
	}
	refs, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse refs for %s: %w", hash, err)
	}
	return refs, nil
}

func (c *LocalCAS) writeRefs(hash string, refs int) error {
	if err := writeAtomic(c.refsPath(hash), []byte(strconv.Itoa(refs))); err != nil {
		return fmt.Errorf("write refs: %w", err)
	}
	return nil
}

// chunkPath fans chunks out by the first two hash characters: dir/ab/abcdef...
func (c *LocalCAS) chunkPath(hash string) string {
	return filepath.Join(c.dir, hash[:2], hash)
}

func (c *LocalCAS) refsPath(hash string) string {
	return c.chunkPath(hash) + ".refs"
}

func (c *LocalCAS) compress(data []byte) []byte {
	enc := c.encoderPool.Get().(*zstd.Encoder)
	defer c.encoderPool.Put(enc)
	return enc.EncodeAll(data, nil)
}

func (c *LocalCAS) decompress(data []byte) ([]byte, error) {
	dec := c.decoderPool.Get().(*zstd.Decoder)
	defer c.decoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

// writeAtomic writes through a unique temp file and a rename so readers
// see either the old file or the complete new one.
func writeAtomic(target string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(target), ".blob-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// parseKey extracts the hash from "<64 hex chars><ext>"
func parseKey(key string) (string, bool) {
	if len(key) < sha256.Size*2 {
		return "", false
	}
	hash := key[:sha256.Size*2]
	if _, err := hex.DecodeString(hash); err != nil {
		return "", false
	}
	if hash != strings.ToLower(hash) {
		return "", false
	}
	rest := key[sha256.Size*2:]
	if rest != "" && (!strings.HasPrefix(rest, ".") || strings.ContainsAny(rest, `/\`)) {
		return "", false
	}
	return hash, true
}

func contentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// IsNotFound reports whether err means the blob does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
