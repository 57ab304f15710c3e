/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets resolves image sources for image elements: local files,
// data URLs and remote http(s) URLs. Only the image header is decoded to
// learn the natural size; remote bytes are cached in SQLite.
package assets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedSource is returned for sources that are neither a file,
	// a data URL nor an http(s) URL.
	ErrUnsupportedSource = errors.New("unsupported image source")
	// ErrDecode wraps failures to recognize the image format.
	ErrDecode = errors.New("decode image")
	// ErrTooLarge is returned when a resource exceeds the size limit.
	ErrTooLarge = errors.New("image resource too large")
)

// Source is a resolved image: Src is what the element stores.
type Source struct {
	Src    string
	Width  int
	Height int
	MIME   string
}

// Scheme classifies a source string.
type Scheme uint8

const (
	SchemeUnknown Scheme = iota
	SchemeFile
	SchemeData
	SchemeHTTP
)

func (s Scheme) String() string {
	switch s {
	case SchemeFile:
		return "file"
	case SchemeData:
		return "data"
	case SchemeHTTP:
		return "http"
	}
	return "unknown"
}

// Classify decides how a source string is loaded. Plain paths and file://
// URLs are files.
func Classify(src string) Scheme {
	s := strings.TrimSpace(src)
	if s == "" {
		return SchemeUnknown
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return SchemeData
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SchemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return SchemeFile
	case strings.Contains(s, "://"):
		return SchemeUnknown
	}
	return SchemeFile
}

func mimeOf(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "":
		return "application/octet-stream"
	}
	return "image/" + format
}

// DecodeConfig reads only the image header.
func DecodeConfig(data []byte) (w, h int, mime string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, "", fmt.Errorf("%w: empty image", ErrDecode)
	}
	return cfg.Width, cfg.Height, mimeOf(format), nil
}

// Decode fully decodes data.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL returns the payload and declared media type of a data URL.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		rest, ok = strings.CutPrefix(s, "DATA:")
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !ok || !found {
		return nil, "", fmt.Errorf("%w: malformed data URL", ErrUnsupportedSource)
	}
	mime, isB64 := strings.CutSuffix(meta, ";base64")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if isB64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: data URL payload: %v", ErrDecode, err)
		}
		return data, mime, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: data URL payload: %v", ErrDecode, err)
	}
	return []byte(data), mime, nil
}

func readFile(src string, limit int64) ([]byte, error) {
	path := src
	if u, err := url.Parse(src); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image file: %w", err)
	}
	if limit > 0 && fi.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, fi.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}
