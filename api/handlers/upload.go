package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/config"
)

var errNotImage = errors.New("only image files are allowed")

// parseMultipart reads a multipart body of at most maxUploadBytes. It writes
// the error response itself and reports whether the handler may continue.
func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			config.ErrorKindStatus("upload exceeds the 50 MB limit", "validation", http.StatusRequestEntityTooLarge, w, err)
			return false
		}
		config.ErrorKindStatus("request must be multipart/form-data", "validation", http.StatusBadRequest, w, err)
		return false
	}
	return true
}

// formPhoto returns the "photo" part as a blob. A missing part gives an empty
// blob; a part that is not an image gives errNotImage.
func formPhoto(r *http.Request) (blobstore.Blob, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return blobstore.Blob{}, nil
	}
	if err != nil {
		return blobstore.Blob{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return blobstore.Blob{}, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return blobstore.Blob{}, errNotImage
	}
	return blobstore.Blob{Data: data, ContentType: contentType, Filename: header.Filename}, nil
}

// photoFromForm writes a 400 when the photo part is unusable
func photoFromForm(w http.ResponseWriter, r *http.Request) (blobstore.Blob, bool) {
	photo, err := formPhoto(r)
	if err != nil {
		msg := "failed to read photo"
		if errors.Is(err, errNotImage) {
			msg = errNotImage.Error()
		}
		config.ErrorKindStatus(msg, "validation", http.StatusBadRequest, w, err)
		return blobstore.Blob{}, false
	}
	return photo, true
}
