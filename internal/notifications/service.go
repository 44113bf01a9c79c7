package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/gomail.v2"

	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
)

const (
	maxCardRows      = 5
	maxCardQuickWins = 3
)

// titleCase builds a Caser per call; Casers keep state and must not be shared
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Service sends report and alert notices to Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(...*gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = func(m ...*gomail.Message) error {
		return gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword).DialAndSend(m...)
	}
	return s
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	return s.fanOut("report "+report.ID,
		func() error { return s.postTeams(ctx, s.buildTeamsMessage(report)) },
		func() error { return s.sendReportEmail(report) },
	)
}

// SendAlert sends an urgent alert via configured notification channels
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	return s.fanOut("alert "+alert.ID,
		func() error { return s.postTeams(ctx, s.buildAlertMessage(alert)) },
		func() error { return s.sendAlertEmail(alert) },
	)
}

// fanOut runs every configured channel and joins their failures into one error
func (s *Service) fanOut(what string, teams, email func() error) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := teams(); err != nil {
			logrus.Errorf("Failed to send %s to Teams: %v", what, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent %s to Teams", what)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := email(); err != nil {
			logrus.Errorf("Failed to email %s: %v", what, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Emailed %s", what)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) postTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("AI Visibility Report - %s", report.Brand),
		Text: fmt.Sprintf("%s report over %d responses (%d errored, %d mention slots)",
			titleCase(string(report.SearchType)), report.TotalResults, report.ErroredResults, report.TotalMentionSlots),
	}

	facts := []TeamsFact{
		{Name: "Report", Value: report.ID},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
		{Name: "Dominant Sentiment", Value: sentimentLabel(report.Sentiment.Insights.Dominant)},
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Breakdown) > 0 {
		var rows []string
		for i, row := range report.Breakdown {
			if i == maxCardRows {
				break
			}
			rows = append(rows, fmt.Sprintf("**%s** - %.1f%% visibility, %.1f%% share of voice (%d/%d)",
				row.Brand, row.VisibilityScore, row.ShareOfVoice, row.Mentioned, row.Total))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Brands",
			ActivityText:  strings.Join(rows, "\n\n"),
			Markdown:      true,
		})
	}

	if len(report.QuickWins) > 0 {
		var wins []string
		for i, win := range report.QuickWins {
			if i == maxCardQuickWins {
				break
			}
			wins = append(wins, fmt.Sprintf("**[%s] %s** - %s", strings.ToUpper(string(win.Severity)), win.Title, win.Action))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Quick Wins",
			ActivityText:  strings.Join(wins, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) buildAlertMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}
	if win := alert.QuickWin; win != nil {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle:    win.Title,
			ActivitySubtitle: alert.Brand,
			ActivityText:     win.Action,
			Facts: []TeamsFact{
				{Name: "Severity", Value: string(win.Severity)},
				{Name: "Target", Value: win.Target},
				{Name: "Brand Visibility", Value: fmt.Sprintf("%.1f%%", win.BrandVisibility)},
				{Name: "Competitor Visibility", Value: fmt.Sprintf("%.1f%%", win.CompetitorVisibility)},
				{Name: "Responses", Value: fmt.Sprintf("%d", win.Responses)},
			},
			Markdown: true,
		})
	}
	return message
}

func sentimentLabel(s models.Sentiment) string {
	if s == "" {
		return "n/a"
	}
	return titleCase(strings.ReplaceAll(string(s), "_", " "))
}
