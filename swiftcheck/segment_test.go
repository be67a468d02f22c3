package swiftcheck

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/opencontainers/go-digest"

	checkerrors "github.com/dfitzgerald/swiftcheck/swiftcheck/errors"
)

func TestInferSegmentSize(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     int64
		wantErr  bool
	}{
		{
			name:     "standard swift segment naming",
			segments: []string{"data.bin/1371302900.0/524288/00000000", "data.bin/1371302900.0/524288/00000001"},
			want:     524288,
		},
		{
			name:     "size is second-to-last component",
			segments: []string{"nested/path/data.bin/1371302900.0/1048576/00000003"},
			want:     1048576,
		},
		{
			name:     "empty listing",
			segments: nil,
			wantErr:  true,
		},
		{
			name:     "no path components",
			segments: []string{"flatname"},
			wantErr:  true,
		},
		{
			name:     "non-numeric size component",
			segments: []string{"data.bin/1371302900.0/huge/00000000"},
			wantErr:  true,
		},
		{
			name:     "zero size component",
			segments: []string{"data.bin/1371302900.0/0/00000000"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inferSegmentSize(tt.segments)
			if tt.wantErr {
				if err == nil {
					t.Fatal("inferSegmentSize() expected error, got nil")
				}
				if code := checkerrors.GetErrorCode(err); code != "SEGMENT_SIZE_UNKNOWN" {
					t.Errorf("inferSegmentSize() error code = %q, want SEGMENT_SIZE_UNKNOWN", code)
				}
				return
			}
			if err != nil {
				t.Fatalf("inferSegmentSize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("inferSegmentSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLocalSegmentDigests(t *testing.T) {
	chunkDigest := func(data []byte) digest.Digest {
		sum := md5.Sum(data)
		return digest.NewDigestFromEncoded(MD5, hex.EncodeToString(sum[:]))
	}

	t.Run("chunking with short final chunk", func(t *testing.T) {
		data := []byte("aaaabbbbcc") // two full chunks of 4, one of 2
		path := writeTempFile(t, data)

		got, err := localSegmentDigests(path, 4, nil)
		if err != nil {
			t.Fatalf("localSegmentDigests() error = %v", err)
		}

		want := map[digest.Digest]struct{}{
			chunkDigest([]byte("aaaa")): {},
			chunkDigest([]byte("bbbb")): {},
			chunkDigest([]byte("cc")):   {},
		}
		if !digestSetsEqual(got, want) {
			t.Errorf("localSegmentDigests() = %v, want %v", got, want)
		}
	})

	t.Run("file length an exact multiple of the segment size", func(t *testing.T) {
		data := []byte("aaaabbbb")
		path := writeTempFile(t, data)

		got, err := localSegmentDigests(path, 4, nil)
		if err != nil {
			t.Fatalf("localSegmentDigests() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("localSegmentDigests() produced %d digests, want 2", len(got))
		}
	})

	t.Run("identical chunks collapse to one set entry", func(t *testing.T) {
		data := []byte("aaaaaaaa")
		path := writeTempFile(t, data)

		got, err := localSegmentDigests(path, 4, nil)
		if err != nil {
			t.Fatalf("localSegmentDigests() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("localSegmentDigests() produced %d digests, want 1", len(got))
		}
	})

	t.Run("empty file yields empty set", func(t *testing.T) {
		path := writeTempFile(t, nil)

		got, err := localSegmentDigests(path, 4, nil)
		if err != nil {
			t.Fatalf("localSegmentDigests() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("localSegmentDigests() produced %d digests, want 0", len(got))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := localSegmentDigests("/nonexistent/path", 4, nil)
		if code := checkerrors.GetErrorCode(err); code != "LOCAL_FILE_FAILED" {
			t.Errorf("localSegmentDigests() error code = %q, want LOCAL_FILE_FAILED", code)
		}
	})
}

func TestNormalizeETag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "d41d8cd98f00b204e9800998ecf8427e", want: "d41d8cd98f00b204e9800998ecf8427e"},
		{in: "  d41d8cd98f00b204e9800998ecf8427e \n", want: "d41d8cd98f00b204e9800998ecf8427e"},
		{in: `"D41D8CD98F00B204E9800998ECF8427E"`, want: "d41d8cd98f00b204e9800998ecf8427e"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := normalizeETag(tt.in); got != tt.want {
			t.Errorf("normalizeETag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
