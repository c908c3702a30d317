package templates

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// IssueReportEmail is the content of the notification sent to an office
type IssueReportEmail struct {
	OfficeName    string
	ReporterName  string
	ReporterEmail string
	Description   string
	City          string
	District      string
	Province      string
	Address       string
	Latitude      float64
	Longitude     float64
	PhotoURL      string
	ReportedAt    time.Time
}

// MapsURL links to the coordinates on Google Maps
func (e IssueReportEmail) MapsURL() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", e.Latitude, e.Longitude)
}

// RenderIssueReportEmail returns the subject, HTML body and plain-text body of
// an office notification. Every user-supplied value is escaped.
func RenderIssueReportEmail(e IssueReportEmail) (subject, htmlBody, plainText string) {
	subject = "New City Issue Report - " + e.City
	esc := html.EscapeString
	reportedAt := e.ReportedAt.UTC().Format("2006-01-02 15:04 MST")

	var b strings.Builder
	fmt.Fprintf(&b, `<p>Reported to: %s</p>`, esc(e.OfficeName))
	fmt.Fprintf(&b, `<div class="info-box"><h3>Reporter Information</h3><p><strong>Name:</strong> %s</p><p><strong>Email:</strong> %s</p></div>`,
		esc(e.ReporterName), esc(e.ReporterEmail))
	fmt.Fprintf(&b, `<div class="info-box"><h3>Issue Description</h3><p>%s</p></div>`,
		strings.ReplaceAll(esc(e.Description), "\n", "<br>"))
	fmt.Fprintf(&b, `<div class="info-box"><h3>Location Details</h3><p><strong>City:</strong> %s<br><strong>District:</strong> %s<br><strong>Province:</strong> %s</p><p><strong>Address:</strong> %s</p><p>Coordinates: %f, %f</p><a class="button" href="%s" target="_blank">View on Google Maps</a></div>`,
		esc(e.City), esc(e.District), esc(e.Province), esc(e.Address), e.Latitude, e.Longitude, esc(e.MapsURL()))
	fmt.Fprintf(&b, `<div class="info-box photo"><h3>Photo Evidence</h3><img src="%s" alt="Issue Photo" /></div>`, esc(e.PhotoURL))
	fmt.Fprintf(&b, `<div class="info-box"><h3>Report Information</h3><p><strong>Reported at:</strong> %s</p><p><strong>Priority:</strong> Normal</p><p>For questions, contact: %s</p></div>`,
		reportedAt, esc(e.ReporterEmail))
	htmlBody = layout("New City Issue Report", b.String())

	plainText = fmt.Sprintf("New city issue report for %s\n\nReporter: %s <%s>\n\n%s\n\nLocation: %s, %s, %s, %s\nMap: %s\nPhoto: %s\nReported at: %s\n",
		e.OfficeName, e.ReporterName, e.ReporterEmail, e.Description,
		e.Address, e.City, e.District, e.Province, e.MapsURL(), e.PhotoURL, reportedAt)
	return subject, htmlBody, plainText
}
