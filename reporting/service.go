package reporting

import (
	"context"
	"time"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/notify"
)

// Options tunes the blocking calls a Service makes
type Options struct {
	UploadTimeout     time.Duration
	NotifyTimeout     time.Duration
	NotifyConcurrency int
}

// Deps are the stores and adapters a Service works against. Events may be nil.
type Deps struct {
	Users    databases.UserDatabase
	Admins   databases.AdminDatabase
	Reports  databases.ReportDatabase
	Uploader blobstore.Uploader
	Notifier notify.Notifier
	Events   EventPublisher
}

// Service runs report submission, the resolution lifecycle, public comments
// and the read side over issue reports
type Service struct {
	users    databases.UserDatabase
	admins   databases.AdminDatabase
	reports  databases.ReportDatabase
	uploader blobstore.Uploader
	notifier notify.Notifier
	events   EventPublisher
	opts     Options
	now      func() time.Time
}

// New builds a Service. Zero options fall back to defaults.
func New(d Deps, o Options) *Service {
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = 30 * time.Second
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 15 * time.Second
	}
	if o.NotifyConcurrency <= 0 {
		o.NotifyConcurrency = 4
	}
	events := d.Events
	if events == nil {
		events = discardEvents{}
	}
	return &Service{
		users:    d.Users,
		admins:   d.Admins,
		reports:  d.Reports,
		uploader: d.Uploader,
		notifier: d.Notifier,
		events:   events,
		opts:     o,
		now:      time.Now,
	}
}

// timestamp is the current time at the precision the store keeps, rounded up
// so it never precedes the call
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Add(time.Millisecond - 1).Truncate(time.Millisecond)
}

// upload stores a photo, bounded by the upload timeout
func (s *Service) upload(ctx context.Context, op string, photo blobstore.Blob) (blobstore.Object, error) {
	uctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	obj, err := s.uploader.Upload(uctx, photo)
	if err != nil {
		if uctx.Err() == context.DeadlineExceeded {
			return blobstore.Object{}, dependencyError(op, "photo upload timed out", context.DeadlineExceeded)
		}
		return blobstore.Object{}, dependencyError(op, "photo upload failed", err)
	}
	return obj, nil
}
