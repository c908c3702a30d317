package reporting

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/notify"
	templates "github.com/linesmerrill/city-reporter-api/templates/html"
)

// digestPageSize caps how many pending reports one digest lists
const digestPageSize = 50

// DigestSummary counts what a digest run did
type DigestSummary struct {
	Admins  int `json:"admins"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// SendPendingDigests emails every admin the reports still pending in their
// city. Admins with nothing pending get no email.
func (s *Service) SendPendingDigests(ctx context.Context) (DigestSummary, error) {
	const op = "send pending digests"

	var sum DigestSummary
	admins, err := s.admins.Find(ctx, bson.M{})
	if err != nil {
		return sum, persistenceError(op, "failed to list admins", err)
	}
	sum.Admins = len(admins)

	pending := map[string]*ReportPage{}
	for _, admin := range admins {
		city := strings.ToLower(strings.TrimSpace(admin.City))
		page, ok := pending[city]
		if !ok {
			filter := databases.ReportFilter{City: admin.City, ResolutionStatus: models.ResolutionPending}
			if page, err = s.ListReports(ctx, filter, databases.NewPage(digestPageSize, 0)); err != nil {
				return sum, err
			}
			pending[city] = page
		}
		if page.Count == 0 {
			sum.Skipped++
			continue
		}

		items := make([]templates.DigestItem, 0, page.Count)
		for _, r := range page.Reports {
			items = append(items, templates.DigestItem{
				ID:               r.ID.Hex(),
				Description:      r.Description,
				Address:          r.Location.Address,
				ResolutionStatus: string(r.ResolutionStatus),
				CreatedAt:        r.CreatedAt,
			})
		}
		subject, html, text := templates.RenderPendingDigestEmail(admin.Name, admin.City, items)

		nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
		d := s.notifier.Send(nctx, notify.Message{To: admin.Email, ToName: admin.Name, Subject: subject, HTML: html, PlainText: text})
		cancel()
		if !d.Success {
			sum.Failed++
			zap.S().Warnw("digest email failed", "adminID", admin.ID.Hex(), "error", d.Error)
			continue
		}
		sum.Sent++
	}

	zap.S().Infow("pending digests sent", "admins", sum.Admins, "sent", sum.Sent, "failed", sum.Failed, "skipped", sum.Skipped)
	return sum, nil
}
