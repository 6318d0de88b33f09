package storage

import (
	"context"
	b64 "encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Tabitha-Home/THMS-CLIENT/shared"

	"github.com/pkg/errors"
)

const (
	photoKeyPrefix = "child_photo_"
	metaKeyPrefix  = "child_photo_meta_"
)

var (
	ErrNoPhoto               = errors.New("no photo override stored for this child")
	ErrUnsupportedFileFormat = fmt.Errorf("unsupported format. The only accepted formats are image/jpeg and image/png")
)

// PhotoMetadata describes a stored override, mirroring what a real upload
// endpoint would record about the file.
type PhotoMetadata struct {
	Filename   string `json:"filename"`
	Size       int    `json:"size"`
	MimeType   string `json:"type"`
	UploadedAt string `json:"uploadedAt"`
}

type Store interface {
	Put(ctx context.Context, childId, filename string, content []byte) (string, error)
	Get(childId string) (string, bool)
	Metadata(childId string) (PhotoMetadata, error)
	Clear(childId string) error
	ClearAll() error
}

// LocalOverrideStore keeps user selected photos outside the backend, keyed
// by child id under a fixed prefix so they can be enumerated and cleared in
// bulk. It is a per installation convenience layer, not a source of truth:
// a server side photo field, once the reserved upload endpoint is live,
// supersedes anything stored here. Concurrent writers to the same key are
// last write wins.
type LocalOverrideStore struct {
	Config *shared.AppConfig `inject:""`
	Logger *shared.Logger    `inject:""`
}

// Put encodes the file as a data url, stores it with its metadata and
// returns the url. The configured delay emulates the round trip of the
// reserved upload endpoint and honors context cancellation.
func (s *LocalOverrideStore) Put(ctx context.Context, childId, filename string, content []byte) (string, error) {
	mimeType := http.DetectContentType(content)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return "", ErrUnsupportedFileFormat
	}

	if err := os.MkdirAll(s.Config.PhotoStoragePath, 0700); err != nil {
		return "", errors.Wrap(err, "failed to create photo storage directory")
	}

	dataUrl := "data:" + mimeType + ";base64," + b64.StdEncoding.EncodeToString(content)

	if err := ioutil.WriteFile(s.photoPath(childId), []byte(dataUrl), 0600); err != nil {
		return "", errors.Wrap(err, "failed to store photo")
	}

	meta := PhotoMetadata{
		Filename:   filename,
		Size:       len(content),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	encodedMeta, err := json.Marshal(meta)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode photo metadata")
	}
	if err := ioutil.WriteFile(s.metaPath(childId), encodedMeta, 0600); err != nil {
		return "", errors.Wrap(err, "failed to store photo metadata")
	}

	select {
	case <-time.After(s.Config.PhotoUploadDelay):
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "photo upload aborted")
	}

	s.Logger.Debug(ctx, "stored photo override", "childId", childId, "size", len(content), "mimeType", mimeType)
	return dataUrl, nil
}

// Get is a synchronous lookup, there is no network behind it.
func (s *LocalOverrideStore) Get(childId string) (string, bool) {
	b, err := ioutil.ReadFile(s.photoPath(childId))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *LocalOverrideStore) Metadata(childId string) (PhotoMetadata, error) {
	b, err := ioutil.ReadFile(s.metaPath(childId))
	if os.IsNotExist(err) {
		return PhotoMetadata{}, ErrNoPhoto
	}
	if err != nil {
		return PhotoMetadata{}, errors.Wrap(err, "failed to read photo metadata")
	}

	meta := PhotoMetadata{}
	if err := json.Unmarshal(b, &meta); err != nil {
		return PhotoMetadata{}, errors.Wrap(err, "failed to decode photo metadata")
	}
	return meta, nil
}

// Clear removes the photo and its metadata. Clearing an id without an
// override is not an error, the cascade from a record delete must succeed
// either way.
func (s *LocalOverrideStore) Clear(childId string) error {
	for _, filePath := range []string{s.photoPath(childId), s.metaPath(childId)} {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to clear photo override")
		}
	}
	return nil
}

// ClearAll removes every entry under the namespace prefix.
func (s *LocalOverrideStore) ClearAll() error {
	entries, err := ioutil.ReadDir(s.Config.PhotoStoragePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to enumerate photo overrides")
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), photoKeyPrefix) {
			continue
		}
		if err := os.Remove(path.Join(s.Config.PhotoStoragePath, entry.Name())); err != nil {
			return errors.Wrap(err, "failed to clear photo overrides")
		}
	}
	return nil
}

func (s *LocalOverrideStore) photoPath(childId string) string {
	return path.Join(s.Config.PhotoStoragePath, photoKeyPrefix+childId)
}

func (s *LocalOverrideStore) metaPath(childId string) string {
	return path.Join(s.Config.PhotoStoragePath, metaKeyPrefix+childId)
}
