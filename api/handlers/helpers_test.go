package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/notify"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

type stubUploader struct {
	err   error
	calls int
}

func (s *stubUploader) Upload(ctx context.Context, b blobstore.Blob) (blobstore.Object, error) {
	s.calls++
	if s.err != nil {
		return blobstore.Object{}, s.err
	}
	return blobstore.Object{URL: "https://res.cloudinary.com/demo/issue-reports/1-abc.png", Path: "issue-reports/1-abc"}, nil
}

type stubNotifier struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []notify.Message
}

func (n *stubNotifier) Send(ctx context.Context, msg notify.Message) notify.Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.fail[msg.To] {
		return notify.Delivery{Error: "mailbox unavailable"}
	}
	return notify.Delivery{Success: true, MessageID: "msg-" + msg.To}
}

func newService(db databases.DatabaseHelper, up blobstore.Uploader, n notify.Notifier) *reporting.Service {
	return reporting.New(reporting.Deps{
		Users:    databases.NewUserDatabase(db),
		Admins:   databases.NewAdminDatabase(db),
		Reports:  databases.NewReportDatabase(db),
		Uploader: up,
		Notifier: n,
	}, reporting.Options{})
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with the given fields and, when photo is
// non-nil, a "photo" part of the given content type
func multipartRequest(t *testing.T, url string, fields map[string]string, photo []byte, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="pothole.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// errorOf returns the message and kind of an error envelope
func errorOf(t *testing.T, rr *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	body := decodeBody(t, rr)
	resp, ok := body["response"].(map[string]interface{})
	require.True(t, ok, "not an error envelope: %s", rr.Body.String())
	msg, _ := resp["message"].(string)
	kind, _ := resp["error"].(string)
	return msg, kind
}
