package templates

import (
	"fmt"
	"html"
)

// layout wraps already-safe body HTML in the branded page. The title is
// escaped here.
func layout(title, bodyHTML string) string {
	safeTitle := html.EscapeString(title)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f4; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 30px; color: #333; line-height: 1.6; font-size: 15px; }
    .info-box { background: #f8f9fa; border-left: 4px solid #667eea; padding: 15px; margin: 15px 0; border-radius: 4px; }
    .info-box h3 { margin: 0 0 10px 0; color: #667eea; font-size: 16px; }
    .photo img { max-width: 100%%; border-radius: 8px; }
    .button { display: inline-block; background: #667eea; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 6px; font-weight: 600; }
    table.reports { width: 100%%; border-collapse: collapse; }
    table.reports td, table.reports th { border-bottom: 1px solid #e5e7eb; padding: 8px; text-align: left; font-size: 14px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p><strong>SmartCity Issue Reporter System</strong></p>
      <p>This is an automated email. Please take appropriate action.</p>
    </div>
  </div>
</body>
</html>`, safeTitle, safeTitle, bodyHTML)
}
