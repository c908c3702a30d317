package templates

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// DigestItem is one pending report listed in an admin digest
type DigestItem struct {
	ID               string
	Description      string
	Address          string
	ResolutionStatus string
	CreatedAt        time.Time
}

// RenderPendingDigestEmail lists the reports still pending in an admin's city
func RenderPendingDigestEmail(adminName, city string, items []DigestItem) (subject, htmlBody, plainText string) {
	subject = fmt.Sprintf("%d pending issue reports in %s", len(items), city)
	esc := html.EscapeString

	var b, p strings.Builder
	fmt.Fprintf(&b, `<p>Hello %s,</p><p>The following reports in %s are still waiting for action.</p>`, esc(adminName), esc(city))
	b.WriteString(`<table class="reports"><tr><th>Reported</th><th>Description</th><th>Address</th><th>Status</th></tr>`)
	fmt.Fprintf(&p, "Hello %s,\n\nPending reports in %s:\n\n", adminName, city)
	for _, it := range items {
		day := it.CreatedAt.UTC().Format("2006-01-02")
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			day, esc(truncate(it.Description, 120)), esc(it.Address), esc(it.ResolutionStatus))
		fmt.Fprintf(&p, "- [%s] %s (%s) id=%s\n", day, truncate(it.Description, 120), it.Address, it.ID)
	}
	b.WriteString(`</table>`)

	return subject, layout("Pending Issue Reports", b.String()), p.String()
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
