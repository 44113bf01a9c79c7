package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		ID:                "r-1",
		GeneratedAt:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Brand:             "Nike",
		SearchType:        models.SearchTypeBrand,
		TotalResults:      10,
		ErroredResults:    1,
		TotalMentionSlots: 14,
		Breakdown: []models.BrandBreakdownRow{
			{Brand: "Nike", IsSearchedBrand: true, Mentioned: 6, Total: 9, VisibilityScore: 66.7, ShareOfVoice: 42.9},
			{Brand: "Adidas", Mentioned: 8, Total: 9, VisibilityScore: 88.9, ShareOfVoice: 57.1},
		},
		Sentiment: models.SentimentSummary{Insights: models.SentimentInsights{Dominant: models.SentimentPositiveEndorsement}},
		QuickWins: []models.QuickWin{{Type: models.QuickWinPromptGap, Severity: models.SeverityCritical,
			Title: `Close the gap on "trail shoes"`, Action: "Publish a trail guide."}},
	}
}

func TestService_SendReportToTeams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, svc.SendReport(context.Background(), sampleReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "AI Visibility Report - Nike", received.Title)
	assert.Equal(t, "Brand report over 10 responses (1 errored, 14 mention slots)", received.Text)
	require.Len(t, received.Sections, 3)
	assert.Contains(t, received.Sections[1].ActivityText, "**Adidas** - 88.9% visibility")
	assert.Contains(t, received.Sections[2].ActivityText, "[CRITICAL]")
}

func TestService_TeamsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad card"))
	}))
	defer server.Close()

	svc := NewService(&config.Config{TeamsWebhookURL: server.URL})
	err := svc.SendAlert(context.Background(), &models.Alert{ID: "a-1", Title: "Critical gap"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestService_SendReportEmail(t *testing.T) {
	svc := NewService(&config.Config{
		NotificationEmail: "team@example.com",
		SMTPUsername:      "bot@example.com",
	})

	var sent []*gomail.Message
	svc.send = func(m ...*gomail.Message) error {
		sent = append(sent, m...)
		return nil
	}

	require.NoError(t, svc.SendReport(context.Background(), sampleReport()))
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"team@example.com"}, sent[0].GetHeader("To"))
	assert.Equal(t, []string{"AI Visibility Report - Nike (10 responses)"}, sent[0].GetHeader("Subject"))
}

func TestService_ChannelFailuresJoined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(&config.Config{TeamsWebhookURL: server.URL, NotificationEmail: "team@example.com"})
	svc.send = func(...*gomail.Message) error { return errors.New("smtp down") }

	err := svc.SendReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams:")
	assert.Contains(t, err.Error(), "Email: failed to send email: smtp down")
}

func TestService_NoChannelsIsNoop(t *testing.T) {
	svc := NewService(&config.Config{})
	assert.NoError(t, svc.SendReport(context.Background(), sampleReport()))
}

func TestBuildEmailBodies(t *testing.T) {
	html, err := buildEmailHTML(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, html, "AI Visibility Report: Nike")
	assert.Contains(t, html, "Brand report r-1")
	assert.Contains(t, html, "Positive Endorsement")
	assert.Contains(t, html, "88.9%")

	text := buildEmailText(sampleReport())
	assert.Contains(t, text, "2. Adidas: 88.9% visibility, 57.1% share of voice")
	assert.Contains(t, text, "[CRITICAL] Close the gap on \"trail shoes\"")
}
