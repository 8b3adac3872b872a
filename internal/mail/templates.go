package mail

import (
	"fmt"
	"html/template"
)

type AccountData struct {
	AppName     string
	DisplayName string
	Reason      string
}

// BanMessage tells a user their account was suspended and why.
func BanMessage(to string, data AccountData) (Message, error) {
	html, err := render(banTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("render ban template: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s account has been suspended", data.AppName),
		Text: fmt.Sprintf("Hello %s,\n\nYour %s account has been suspended by an administrator.\nReason: %s\n\nYou can reply to this email to contest the decision.\n",
			data.DisplayName, data.AppName, data.Reason),
		HTML: html,
	}, nil
}

// UnbanMessage tells a user their account is active again.
func UnbanMessage(to string, data AccountData) (Message, error) {
	html, err := render(unbanTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("render unban template: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s account has been reactivated", data.AppName),
		Text: fmt.Sprintf("Hello %s,\n\nYour %s account has been reactivated. You can sign in and post listings again.\n",
			data.DisplayName, data.AppName),
		HTML: html,
	}, nil
}

const layoutStyle = `body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .reason { background: #fff3cd; padding: 12px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }`

var banTemplate = template.Must(template.New("ban").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Account suspended</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="header"><h1>{{.AppName}}</h1></div>
    <p>Hello {{.DisplayName}},</p>
    <p>Your account has been suspended by an administrator.</p>
    <div class="reason"><strong>Reason:</strong> {{.Reason}}</div>
    <div class="footer"><p>You can reply to this email to contest the decision.</p></div>
</body>
</html>`))

var unbanTemplate = template.Must(template.New("unban").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Account reactivated</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="header"><h1>{{.AppName}}</h1></div>
    <p>Hello {{.DisplayName}},</p>
    <p>Your account has been reactivated. You can sign in and post listings again.</p>
</body>
</html>`))
