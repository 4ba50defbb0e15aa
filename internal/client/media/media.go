// Package media turns a local media reference into an upload and reports
// percent progress while it is sent.
package media

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var (
	ErrUnsupportedRef = errors.New("unsupported media reference")
	ErrUnknownKind    = errors.New("unknown media kind")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindImage, KindVideo, KindAudio:
		return k, nil
	}
	return "", ErrUnknownKind
}

// Field is the multipart field the server expects for this kind.
func (k Kind) Field() string {
	if k == KindAudio {
		return "audio"
	}
	return "image"
}

// Ref is a media reference as the user supplied it: a path, a file://,
// http(s)://, data: or s3:// URI.
type Ref string

func (r Ref) scheme() string {
	s := string(r)
	i := strings.Index(s, "://")
	if strings.HasPrefix(s, "data:") {
		return "data"
	}
	if i <= 0 {
		return ""
	}
	return strings.ToLower(s[:i])
}

// localPath returns the filesystem path of a plain path or file:// ref.
func (r Ref) localPath() (string, bool) {
	switch r.scheme() {
	case "":
		return string(r), true
	case "file":
		u, err := url.Parse(string(r))
		if err != nil {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	return "", false
}

// Name is the last path element of the reference, "" for data URIs.
func (r Ref) Name() string {
	switch r.scheme() {
	case "data":
		return ""
	case "", "file":
		p, _ := r.localPath()
		return filepath.Base(p)
	}
	u, err := url.Parse(string(r))
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return path.Base(u.Path)
}

// MIMEType derives the content type from the file extension the way the
// mobile client does: video/<ext> for video, audio/<ext> for audio and
// image/<ext> otherwise.
func MIMEType(name string, kind Kind) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	switch kind {
	case KindVideo:
		return "video/" + ext
	case KindAudio:
		return "audio/" + ext
	default:
		return "image/" + ext
	}
}
