/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	applog "triptych/internal/log"
)

// Loader defaults.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 3
	DefaultBackoff  = 250 * time.Millisecond
	DefaultMaxBytes = 32 << 20
)

// Options configures a Loader. Zero values take the defaults above.
type Options struct {
	Timeout  time.Duration // per attempt
	Attempts int           // total attempts for remote sources
	Backoff  time.Duration // wait before attempt n is n*Backoff
	MaxBytes int64
	Token    string // bearer token for remote sources
	Cache    *Cache
	Client   *http.Client
}

// Loader resolves image sources. It is safe for concurrent use.
type Loader struct {
	opts   Options
	client *http.Client
}

func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	c := opts.Client
	if c == nil {
		c = &http.Client{}
	}
	return &Loader{opts: opts, client: c}
}

// Load resolves src and reads its natural size. Files become data URLs so
// documents stay self-contained; data and remote URLs are kept as given.
func (l *Loader) Load(ctx context.Context, src string) (Source, error) {
	lg := applog.WithOperation(applog.WithComponent("assets"), "load").With(slog.String("scheme", Classify(src).String()))
	data, mime, err := l.fetch(ctx, src)
	if err != nil {
		lg.Warn("image load failed", slog.Any("err", err))
		return Source{}, err
	}
	w, h, decoded, err := DecodeConfig(data)
	if err != nil {
		lg.Warn("image decode failed", slog.Any("err", err))
		return Source{}, err
	}
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = decoded
	}
	out := Source{Src: src, Width: w, Height: h, MIME: mime}
	if Classify(src) == SchemeFile {
		out.Src = DataURL(mime, data)
	}
	lg.Debug("image loaded", slog.Int("w", w), slog.Int("h", h), slog.String("mime", mime))
	return out, nil
}

// Image fully decodes src, for exporters.
func (l *Loader) Image(ctx context.Context, src string) (image.Image, error) {
	data, _, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Bytes returns the raw resource and its MIME type.
func (l *Loader) Bytes(ctx context.Context, src string) ([]byte, string, error) {
	data, mime, err := l.fetch(ctx, src)
	if err != nil {
		return nil, "", err
	}
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		if _, _, m, err := DecodeConfig(data); err == nil {
			mime = m
		}
	}
	return data, mime, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, string, error) {
	switch Classify(src) {
	case SchemeData:
		data, mime, err := ParseDataURL(strings.TrimSpace(src))
		if err != nil {
			return nil, "", err
		}
		if int64(len(data)) > l.opts.MaxBytes {
			return nil, "", fmt.Errorf("%w: data URL is %d bytes", ErrTooLarge, len(data))
		}
		return data, mime, nil
	case SchemeFile:
		data, err := readFile(strings.TrimSpace(src), l.opts.MaxBytes)
		return data, "", err
	case SchemeHTTP:
		return l.fetchRemote(ctx, strings.TrimSpace(src))
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedSource, src)
}

func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, string, error) {
	if l.opts.Cache != nil {
		if e, ok, err := l.opts.Cache.Get(ctx, url); err == nil && ok {
			return e.Data, e.MIME, nil
		}
	}
	var lastErr error
	for attempt := 1; attempt <= l.opts.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, "", fmt.Errorf("fetch %s: %w", url, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * l.opts.Backoff):
			}
		}
		data, mime, err := l.get(ctx, url)
		if err == nil {
			l.store(ctx, url, data, mime)
			return data, mime, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		applog.WithOperation(applog.WithComponent("assets"), "fetch").Debug("retrying",
			slog.Int("attempt", attempt), slog.Any("err", err))
	}
	return nil, "", fmt.Errorf("fetch %s: %w", url, lastErr)
}

// statusError is a non-2xx response.
type statusError struct {
	Code   int
	Status string
}

func (e *statusError) Error() string { return "server returned " + e.Status }

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return !errors.Is(err, ErrTooLarge) && !errors.Is(err, context.Canceled)
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if l.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.opts.Token)
	}
	req.Header.Set("Accept", "image/*")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &statusError{Code: resp.StatusCode, Status: resp.Status}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.opts.MaxBytes)
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return data, mime, nil
}

func (l *Loader) store(ctx context.Context, url string, data []byte, mime string) {
	if l.opts.Cache == nil {
		return
	}
	w, h, decoded, err := DecodeConfig(data)
	if err != nil {
		return
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = decoded
	}
	if err := l.opts.Cache.Put(ctx, Entry{URL: url, MIME: mime, Width: w, Height: h, Data: data}); err != nil {
		applog.WithOperation(applog.WithComponent("assets"), "cache_put").Warn("cache write failed", slog.Any("err", err))
	}
}
