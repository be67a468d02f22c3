package swiftcheck

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"

	checkerrors "github.com/dfitzgerald/swiftcheck/swiftcheck/errors"
)

// inferSegmentSize parses the segment size out of the first segment name.
// Swift clients name segments <object>/<timestamp>/<size>/<index>, so the
// second-to-last path component carries the size used at upload time.
func inferSegmentSize(segmentNames []string) (int64, error) {
	if len(segmentNames) == 0 {
		return 0, checkerrors.ErrSegmentSizeUnknown.WithMessage("no segments listed and no segment size given")
	}

	name := segmentNames[0]
	parts := strings.Split(name, "/")
	if len(parts) < 2 {
		return 0, checkerrors.ErrSegmentSizeUnknown.WithDetail("segment", name)
	}

	size, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return 0, checkerrors.ErrSegmentSizeUnknown.WithDetail("segment", name).WithCause(err)
	}
	if size <= 0 {
		return 0, checkerrors.ErrSegmentSizeUnknown.WithDetail("segment", name)
	}
	return size, nil
}

// localSegmentDigests reads the file in segmentSize chunks (the last chunk
// may be shorter) and collects one MD5 digest per chunk into a set.
func localSegmentDigests(path string, segmentSize int64, progress ProgressCallback) (map[digest.Digest]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
	}
	total := info.Size()

	digests := make(map[digest.Digest]struct{})
	buf := make([]byte, segmentSize)
	var hashed int64

	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			sum := md5.Sum(buf[:n])
			digests[digest.NewDigestFromEncoded(MD5, hex.EncodeToString(sum[:]))] = struct{}{}

			hashed += int64(n)
			if progress != nil {
				progress(hashed, total)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, checkerrors.ErrLocalFile.WithDetail("path", path).WithCause(err)
		}
	}

	return digests, nil
}
