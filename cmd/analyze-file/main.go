package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/brand-visibility-engine/internal/analysis"
	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

func main() {
	output := flag.String("out", "test_output", "directory the report JSON is written to")
	exclude := flag.String("exclude", "", "comma-separated brands to exclude")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze-file [-out dir] [-exclude a,b] request.json")
		os.Exit(2)
	}

	_ = godotenv.Load()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logrus.Fatalf("Failed to read %s: %v", flag.Arg(0), err)
	}
	req, err := analysis.DecodeRequest(data)
	if err != nil {
		logrus.Fatalf("Failed to decode %s: %v", flag.Arg(0), err)
	}

	store, err := storage.NewFileStorage(*output)
	if err != nil {
		logrus.Fatalf("Failed to prepare output directory: %v", err)
	}

	cfg := &config.Config{
		PendingPrefix:     "runs/",
		ReportPrefix:      "reports/",
		RenameMentionRate: os.Getenv("RENAME_MENTION_RATE") == "true",
	}
	for _, b := range strings.Split(*exclude, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.ExcludedBrands = append(cfg.ExcludedBrands, b)
		}
	}

	service := analysis.NewService(cfg, store, nil)
	report := service.Analyze(req)
	printReport(report)

	if err := service.StoreReport(context.Background(), report); err != nil {
		logrus.Fatalf("Failed to save report: %v", err)
	}
	fmt.Printf("\n💾 Report saved to: %s/reports/%s.json\n", *output, report.ID)
}

func printReport(report *models.Report) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 AI VISIBILITY REPORT: %s (%s)\n", report.Brand, report.SearchType)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("📈 Responses: %d (%d errored), mention slots: %d\n",
		report.TotalResults, report.ErroredResults, report.TotalMentionSlots)

	fmt.Println("\n🏷️  Brands:")
	for _, row := range report.Breakdown {
		marker := " "
		if row.IsSearchedBrand {
			marker = "*"
		}
		fmt.Printf("  %s %-20s %6.1f%% visibility  %6.1f%% SoV  rank %.1f  first %.1f%%\n",
			marker, row.Brand, row.VisibilityScore, row.ShareOfVoice, row.AvgRank, row.FirstPositionRate)
	}

	insights := report.Sentiment.Insights
	fmt.Println("\n💭 Sentiment:")
	fmt.Printf("   Dominant: %s | Average: %.2f | Positive: %.1f%% | Negative: %.1f%%\n",
		insights.Dominant, insights.AverageScore, insights.PositiveShare, insights.NegativeShare)

	if len(report.QuickWins) > 0 {
		fmt.Println("\n🎯 Quick Wins:")
		for i, win := range report.QuickWins {
			fmt.Printf("   %d. [%s] %s (score %.2f)\n      %s\n", i+1, win.Severity, win.Title, win.Score, win.Action)
		}
	}

	if len(report.Recommendations) > 0 {
		fmt.Println("\n📝 Recommendations:")
		for i, rec := range report.Recommendations {
			fmt.Printf("   %d. %s (impact %s, effort %s, score %d)\n", i+1, rec.Title, rec.Impact.Level, rec.Effort.Level, rec.Score)
			for _, tactic := range rec.Tactics {
				fmt.Printf("      • %s\n", tactic)
			}
		}
	}

	if report.CorrectedSummary != "" {
		fmt.Println("\n🧾 Corrected summary:")
		fmt.Println(report.CorrectedSummary)
	}
	fmt.Println(strings.Repeat("=", 70))
}
