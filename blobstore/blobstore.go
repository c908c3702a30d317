package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyBlob is returned when there is nothing to upload
var ErrEmptyBlob = errors.New("blob is empty")

// Blob is a file about to be stored
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Object is where a stored blob can be fetched from
type Object struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Uploader stores blobs under globally unique paths
type Uploader interface {
	Upload(ctx context.Context, blob Blob) (Object, error)
}

// NewPath returns a unique object path inside folder,
// e.g. issue-reports/1709287200000-3f1c...
func NewPath(folder string, now time.Time) string {
	name := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
