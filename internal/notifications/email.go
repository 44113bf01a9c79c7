package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/azure/brand-visibility-engine/internal/models"
)

const reportEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AI Visibility Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; }
        td, th { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: left; }
        .win { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .critical { border-left-color: #d13438; }
        .high { border-left-color: #ff8c00; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Visibility Report: {{.Brand}}</h1>
        <p>{{.SearchType | title}} report {{.ID}} generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <p><strong>Responses:</strong> {{.TotalResults}} ({{.ErroredResults}} errored)</p>
        <p><strong>Mention slots:</strong> {{.TotalMentionSlots}}</p>
        <p><strong>Dominant sentiment:</strong> {{.Sentiment.Insights.Dominant | sentiment}}</p>
    </div>

    {{if .Breakdown}}
    <h2>Brands</h2>
    <table>
        <tr><th>Brand</th><th>Visibility</th><th>Share of voice</th><th>Avg rank</th></tr>
        {{range $i, $row := .Breakdown}}{{if lt $i 10}}
        <tr><td>{{$row.Brand}}</td><td>{{percent $row.VisibilityScore}}</td><td>{{percent $row.ShareOfVoice}}</td><td>{{printf "%.1f" $row.AvgRank}}</td></tr>
        {{end}}{{end}}
    </table>
    {{end}}

    {{if .QuickWins}}
    <h2>Quick Wins</h2>
    {{range .QuickWins}}
        <div class="win {{.Severity}}">
            <strong>{{.Title}}</strong>
            <p>{{.Description}}</p>
            <p><em>{{.Action}}</em></p>
        </div>
    {{end}}
    {{end}}

    {{if .Recommendations}}
    <h2>Recommendations</h2>
    <ol>
    {{range .Recommendations}}
        <li><strong>{{.Title}}</strong> (impact {{.Impact.Level}}, effort {{.Effort.Level}}): {{.Description}}</li>
    {{end}}
    </ol>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the brand visibility engine.</small></p>
</body>
</html>
`

var reportEmail = template.Must(template.New("email").Funcs(template.FuncMap{
	"title":     func(v models.SearchType) string { return titleCase(string(v)) },
	"sentiment": sentimentLabel,
	"percent":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(reportEmailTemplate))

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("AI Visibility Report - %s (%d responses)", report.Brand, report.TotalResults)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	return s.deliver(subject, buildEmailText(report), htmlBody)
}

func (s *Service) sendAlertEmail(alert *models.Alert) error {
	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\n%s\n", alert.Title, alert.Message)
	if win := alert.QuickWin; win != nil {
		fmt.Fprintf(&text, "\nTarget: %s\nAction: %s\n", win.Target, win.Action)
	}
	return s.deliver(fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title), text.String(), "")
}

func (s *Service) deliver(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildEmailHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := reportEmail.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("AI Visibility Report - %s\n", report.Brand))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Responses: %d (%d errored)\n", report.TotalResults, report.ErroredResults))
	text.WriteString(fmt.Sprintf("Mention slots: %d\n", report.TotalMentionSlots))

	if len(report.Breakdown) > 0 {
		text.WriteString("\nBRANDS\n")
		text.WriteString("======\n")
		for i, row := range report.Breakdown {
			if i == 10 {
				break
			}
			text.WriteString(fmt.Sprintf("%d. %s: %.1f%% visibility, %.1f%% share of voice\n",
				i+1, row.Brand, row.VisibilityScore, row.ShareOfVoice))
		}
	}

	if len(report.QuickWins) > 0 {
		text.WriteString("\nQUICK WINS\n")
		text.WriteString("==========\n")
		for _, win := range report.QuickWins {
			text.WriteString(fmt.Sprintf("[%s] %s\n   %s\n", strings.ToUpper(string(win.Severity)), win.Title, win.Action))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the brand visibility engine.\n")

	return text.String()
}
