package storage

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	checkerrors "github.com/dfitzgerald/swiftcheck/swiftcheck/errors"
	"github.com/dfitzgerald/swiftcheck/swiftcheck/logger"
)

// SwiftStore is an ObjectStore backed by an OpenStack Swift proxy using
// v1 (TempAuth) authentication.
type SwiftStore struct {
	httpClient *http.Client
	authURL    string
	user       string
	key        string

	mu         sync.Mutex
	storageURL string
	authToken  string
}

// NewSwiftStore creates a Swift-backed object store client.
func NewSwiftStore(authURL, user, key string) *SwiftStore {
	return &SwiftStore{
		httpClient: &http.Client{},
		authURL:    authURL,
		user:       user,
		key:        key,
	}
}

// WithInsecureTLS disables TLS certificate verification, for proxies with
// self-signed certificates.
func (s *SwiftStore) WithInsecureTLS() *SwiftStore {
	s.httpClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return s
}

// ensureAuth obtains a storage URL and token if none is held yet.
func (s *SwiftStore) ensureAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authToken != "" {
		return nil
	}
	return s.authenticateLocked(ctx)
}

// reauth discards the current token and authenticates again.
func (s *SwiftStore) reauth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authToken = ""
	return s.authenticateLocked(ctx)
}

func (s *SwiftStore) authenticateLocked(ctx context.Context) error {
	logger.Info("Authenticating against %s", s.authURL)

	req, err := http.NewRequestWithContext(ctx, "GET", s.authURL, nil)
	if err != nil {
		return checkerrors.ErrAuthFailed.WithCause(err)
	}
	req.Header.Set("X-Auth-User", s.user)
	req.Header.Set("X-Auth-Key", s.key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return checkerrors.ErrAuthFailed.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return checkerrors.ErrAuthFailed.WithCause(fmt.Errorf("auth endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	storageURL := resp.Header.Get("X-Storage-Url")
	token := resp.Header.Get("X-Auth-Token")
	if storageURL == "" || token == "" {
		return checkerrors.ErrAuthFailed.WithCause(fmt.Errorf("auth response missing X-Storage-Url or X-Auth-Token"))
	}

	s.storageURL = strings.TrimSuffix(storageURL, "/")
	s.authToken = token
	logger.Debug("Authenticated; storage URL %s", s.storageURL)
	return nil
}

func (s *SwiftStore) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken
}

func (s *SwiftStore) objectURL(container, object string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s/%s/%s", s.storageURL, url.PathEscape(container), escapeObjectName(object))
}

func (s *SwiftStore) containerURL(container, prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := fmt.Sprintf("%s/%s", s.storageURL, url.PathEscape(container))
	if prefix != "" {
		u += "?prefix=" + url.QueryEscape(prefix)
	}
	return u
}

// escapeObjectName escapes an object name for use in a URL path while
// keeping the slashes that separate segment path components.
func escapeObjectName(object string) string {
	parts := strings.Split(object, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// do performs an authenticated request, retrying once after a 401.
func (s *SwiftStore) do(ctx context.Context, method string, rawURL func() string) (*http.Response, error) {
	if err := s.ensureAuth(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL(), nil)
	if err != nil {
		return nil, checkerrors.ErrStoreRequest.WithCause(err)
	}
	req.Header.Set("X-Auth-Token", s.token())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, checkerrors.ErrStoreRequest.WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		logger.Info("Token rejected; re-authenticating")
		if err := s.reauth(ctx); err != nil {
			return nil, err
		}

		req, err = http.NewRequestWithContext(ctx, method, rawURL(), nil)
		if err != nil {
			return nil, checkerrors.ErrStoreRequest.WithCause(err)
		}
		req.Header.Set("X-Auth-Token", s.token())

		resp, err = s.httpClient.Do(req)
		if err != nil {
			return nil, checkerrors.ErrStoreRequest.WithCause(err)
		}
	}

	return resp, nil
}

// StatObject issues a HEAD request for the object and adapts the response
// headers into an ObjectStat.
func (s *SwiftStore) StatObject(ctx context.Context, container, object string) (*ObjectStat, error) {
	logger.Debug("HEAD %s/%s", container, object)

	resp, err := s.do(ctx, "HEAD", func() string { return s.objectURL(container, object) })
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return nil, checkerrors.ErrStoreRequest.
			WithDetail("object", container+"/"+object).
			WithCause(fmt.Errorf("stat request returned %d", resp.StatusCode))
	}

	stat := &ObjectStat{
		ContentLength: -1,
		ETag:          resp.Header.Get("Etag"),
		Manifest:      resp.Header.Get("X-Object-Manifest"),
		ContentType:   resp.Header.Get("Content-Type"),
		LastModified:  resp.Header.Get("Last-Modified"),
	}

	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			stat.ContentLength = n
		}
	} else if resp.ContentLength >= 0 {
		stat.ContentLength = resp.ContentLength
	}

	return stat, nil
}

// ListObjects fetches the plain-text container listing under prefix.
func (s *SwiftStore) ListObjects(ctx context.Context, container, prefix string) ([]string, error) {
	logger.Debug("LIST %s prefix=%s", container, prefix)

	resp, err := s.do(ctx, "GET", func() string { return s.containerURL(container, prefix) })
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, checkerrors.ErrStoreRequest.
			WithDetail("container", container).
			WithCause(fmt.Errorf("list request returned %d", resp.StatusCode))
	}

	var names []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, checkerrors.ErrStoreRequest.WithDetail("container", container).WithCause(err)
	}

	return names, nil
}
