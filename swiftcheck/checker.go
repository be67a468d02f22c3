package swiftcheck

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	checkerrors "github.com/dfitzgerald/swiftcheck/swiftcheck/errors"
	"github.com/dfitzgerald/swiftcheck/swiftcheck/logger"
	"github.com/dfitzgerald/swiftcheck/swiftcheck/storage"
)

// MD5 is the digest algorithm Swift uses for object ETags. It is not one
// of go-digest's registered algorithms, so hashing goes through crypto/md5
// and the results are wrapped with NewDigestFromEncoded.
const MD5 digest.Algorithm = "md5"

// segmentContainerSuffix is the naming convention Swift clients use when
// uploading a segmented object without an explicit segment container.
const segmentContainerSuffix = "_segments"

// defaultStatConcurrency bounds parallel per-segment stat requests.
const defaultStatConcurrency = 4

// ProgressCallback is called while the local file is hashed.
// current: bytes hashed so far
// total: total file size (may be -1 if unknown)
type ProgressCallback func(current int64, total int64)

// SegmentContainerName resolves the container holding an object's segments:
// the override when given, else container plus the "_segments" suffix.
func SegmentContainerName(container, override string) string {
	if override != "" {
		return override
	}
	return container + segmentContainerSuffix
}

// Checker verifies that a local file is byte-identical to a remote object
// without downloading the object's content.
type Checker struct {
	store            storage.ObjectStore
	segmentSize      int64
	segmentContainer string
	statConcurrency  int
}

// NewChecker creates a Checker over the given object store.
func NewChecker(store storage.ObjectStore) *Checker {
	return &Checker{
		store:           store,
		statConcurrency: defaultStatConcurrency,
	}
}

// WithSegmentSize sets an explicit segment size, overriding inference from
// segment naming. Zero restores inference.
func (c *Checker) WithSegmentSize(size int64) *Checker {
	c.segmentSize = size
	return c
}

// WithSegmentContainer overrides the "<container>_segments" convention.
func (c *Checker) WithSegmentContainer(name string) *Checker {
	c.segmentContainer = name
	return c
}

// SizeMatches reports whether the local file's byte length equals the
// remote object's reported content length.
func (c *Checker) SizeMatches(ctx context.Context, localPath, container, object string) (bool, error) {
	stat, err := c.statObject(ctx, container, object)
	if err != nil {
		return false, err
	}
	if stat.ContentLength < 0 {
		return false, checkerrors.ErrContentLengthMissing.WithDetail("object", container+"/"+object)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return false, checkerrors.ErrLocalFile.WithDetail("path", localPath).WithCause(err)
	}

	logger.Debug("Size check: local=%d remote=%d", info.Size(), stat.ContentLength)
	return stat.ContentLength == info.Size(), nil
}

// DigestMatches reports whether the local file's content digest matches the
// remote object's. For a segmented object the local file is re-chunked at
// the remote segment size and the per-chunk digests are compared as
// unordered sets: segments with identical content collapse to a single set
// entry on each side, so a swap of two equal-size segments or a missing
// duplicate segment is not detectable at this layer.
func (c *Checker) DigestMatches(ctx context.Context, localPath, container, object string, progress ProgressCallback) (bool, error) {
	stat, err := c.statObject(ctx, container, object)
	if err != nil {
		return false, err
	}

	if stat.Segmented() {
		return c.segmentedDigestMatches(ctx, localPath, container, object, progress)
	}

	remote := normalizeETag(stat.ETag)
	if remote == "" {
		return false, checkerrors.ErrETagMissing.WithDetail("object", container+"/"+object)
	}

	local, err := hashFile(localPath, progress)
	if err != nil {
		return false, err
	}

	logger.Debug("Digest check: local=%s remote=%s", local.Encoded(), remote)
	return local.Encoded() == remote, nil
}

// CheckIntegrity runs the size check and, only when it passes, the digest
// check. The size check is cheap (a single stat), so a length mismatch
// avoids the per-segment remote reads entirely.
func (c *Checker) CheckIntegrity(ctx context.Context, localPath, container, object string, progress ProgressCallback) (bool, error) {
	ok, err := c.SizeMatches(ctx, localPath, container, object)
	if err != nil || !ok {
		return false, err
	}
	return c.DigestMatches(ctx, localPath, container, object, progress)
}

func (c *Checker) statObject(ctx context.Context, container, object string) (*storage.ObjectStat, error) {
	stat, err := c.store.StatObject(ctx, container, object)
	if err != nil {
		return nil, err
	}
	if stat == nil {
		return nil, checkerrors.ErrStatEmpty.WithDetail("object", container+"/"+object)
	}
	return stat, nil
}

func (c *Checker) segmentedDigestMatches(ctx context.Context, localPath, container, object string, progress ProgressCallback) (bool, error) {
	segContainer := SegmentContainerName(container, c.segmentContainer)

	names, err := c.store.ListObjects(ctx, segContainer, object)
	if err != nil {
		return false, err
	}
	logger.Info("Object %s/%s has %d segments in %s", container, object, len(names), segContainer)

	remote, err := c.remoteSegmentDigests(ctx, segContainer, names)
	if err != nil {
		return false, err
	}

	segmentSize := c.segmentSize
	if segmentSize <= 0 {
		segmentSize, err = inferSegmentSize(names)
		if err != nil {
			return false, err
		}
		logger.Debug("Inferred segment size %d from %s", segmentSize, names[0])
	}

	local, err := localSegmentDigests(localPath, segmentSize, progress)
	if err != nil {
		return false, err
	}

	return digestSetsEqual(local, remote), nil
}

// remoteSegmentDigests stats every segment and collects the ETags into an
// unordered set. Stats run in parallel; the first failure aborts the group.
func (c *Checker) remoteSegmentDigests(ctx context.Context, segContainer string, names []string) (map[digest.Digest]struct{}, error) {
	var mu sync.Mutex
	digests := make(map[digest.Digest]struct{}, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.statConcurrency)

	for _, name := range names {
		name := name
		g.Go(func() error {
			stat, err := c.statObject(gctx, segContainer, name)
			if err != nil {
				return err
			}
			etag := normalizeETag(stat.ETag)
			if etag == "" {
				return checkerrors.ErrSegmentETagMissing.WithDetail("segment", segContainer+"/"+name)
			}

			mu.Lock()
			digests[digest.NewDigestFromEncoded(MD5, etag)] = struct{}{}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// normalizeETag trims incidental whitespace and quoting from a remote ETag
// and lowercases the hex.
func normalizeETag(etag string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(etag), `"`))
}

func digestSetsEqual(a, b map[digest.Digest]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if _, ok := b[d]; !ok {
			return false
		}
	}
	return true
}

// hashFile streams the whole local file through MD5.
func hashFile(path string, progress ProgressCallback) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
	}

	var reader io.Reader = f
	if progress != nil {
		reader = &progressReader{reader: f, total: info.Size(), callback: progress}
	}

	hasher := md5.New()
	if _, err := io.Copy(hasher, reader); err != nil {
		return "", checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
	}
	return digest.NewDigestFromEncoded(MD5, hex.EncodeToString(hasher.Sum(nil))), nil
}

// progressReader wraps an io.Reader to report hashing progress
type progressReader struct {
	reader   io.Reader
	total    int64
	current  int64
	callback ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	if pr.callback != nil {
		pr.callback(pr.current, pr.total)
	}
	return n, err
}
