package telegram

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pothole-service/models"
)

const (
	msgStart = `👋 Hi! I report potholes detected on the road.

📋 Commands:
/stats — detection statistics
/severity <level> — potholes by severity (low, medium, high, critical)
/locations — latest pothole locations
/map — route map of detected potholes
/help — this message`

	msgUnknownCommand = "❓ Unknown command. Use /help for the command list."
	msgNoReports      = "No potholes recorded yet."

	defaultListLimit = 10
	statsWindowDays  = 7
)

// ReportSource supplies the stored reports the bot answers from.
type ReportSource interface {
	GetStatistics(ctx context.Context, windowDays int) (*models.Stats, error)
	GetReports(ctx context.Context, limit int) ([]models.Report, error)
	GetReportsBySeverity(ctx context.Context, level models.SeverityLevel, limit int) ([]models.Report, error)
}

// Bot answers pothole queries over Telegram and pushes alerts for new
// reports to the configured chat.
type Bot struct {
	api     *tgbotapi.BotAPI
	reports ReportSource
	chatID  int64
}

// NewBot authorizes against the Telegram API.
func NewBot(token string, chatID int64, reports ReportSource) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}

	log.Infof("Telegram bot authorized on account %s", api.Self.UserName)

	return &Bot{api: api, reports: reports, chatID: chatID}, nil
}

// Run processes incoming messages until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleMessage(ctx, update.Message)
	}

	return ctx.Err()
}

// NotifyReport pushes an alert for a freshly saved report.
func (b *Bot) NotifyReport(ctx context.Context, r *models.Report) error {
	_ = ctx
	text := fmt.Sprintf("🕳 *New %s severity pothole*\n\n"+
		"📍 %s, %s\n"+
		"Score: %.2f | Confidence: %.0f%%\n"+
		"[Open in Google Maps](%s)",
		r.Severity.Level, r.Place.Street, r.Place.City,
		r.Severity.Score, r.Confidence*100,
		pointURL(r.Location.Latitude, r.Location.Longitude))

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, msgStart)
	case "stats":
		b.handleStats(ctx, msg.Chat.ID)
	case "severity":
		b.handleSeverity(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	case "locations":
		b.handleLocations(ctx, msg.Chat.ID)
	case "map":
		b.handleMap(ctx, msg.Chat.ID)
	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	stats, err := b.reports.GetStatistics(ctx, statsWindowDays)
	if err != nil {
		log.Errorf("Failed to load statistics: %v", err)
		b.sendMessage(chatID, "⚠️ Could not load statistics.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*📊 Pothole Detection Statistics (last %d days)*\n\n", stats.WindowDays)
	fmt.Fprintf(&sb, "Total Potholes Detected: %d\n", stats.Total)
	for _, level := range []models.SeverityLevel{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical,
	} {
		if count := stats.BySeverity[string(level)]; count > 0 {
			fmt.Fprintf(&sb, "%s%s: %d\n", strings.ToUpper(string(level[0])), level[1:], count)
		}
	}
	fmt.Fprintf(&sb, "\nAverage confidence: %.0f%%\n", stats.AvgConfidence*100)
	fmt.Fprintf(&sb, "Detection rate: %.2f per hour\n", stats.PerHour)
	if stats.MostRecent != nil {
		fmt.Fprintf(&sb, "Most recent: %s\n", stats.MostRecent.Format("2006-01-02 15:04"))
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleSeverity(ctx context.Context, chatID int64, arg string) {
	if !models.ValidSeverityLevel(arg) {
		b.sendMessage(chatID, "Usage: /severity <low|medium|high|critical>")
		return
	}
	level := models.SeverityLevel(arg)

	reports, err := b.reports.GetReportsBySeverity(ctx, level, defaultListLimit)
	if err != nil {
		log.Errorf("Failed to load %s reports: %v", level, err)
		b.sendMessage(chatID, "⚠️ Could not load reports.")
		return
	}
	if len(reports) == 0 {
		b.sendMessage(chatID, fmt.Sprintf("No %s severity potholes found.", level))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s%s Severity Potholes:*\n\n", strings.ToUpper(arg[:1]), arg[1:])
	for _, r := range reports {
		fmt.Fprintf(&sb, "📍 %s, %s\n", r.Place.City, r.Place.Region)
		fmt.Fprintf(&sb, "   Score: %.2f | Confidence: %.0f%%\n", r.Severity.Score, r.Confidence*100)
		fmt.Fprintf(&sb, "   Location: (%.4f, %.4f)\n\n", r.Location.Latitude, r.Location.Longitude)
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleLocations(ctx context.Context, chatID int64) {
	reports, err := b.reports.GetReports(ctx, defaultListLimit)
	if err != nil {
		log.Errorf("Failed to load reports: %v", err)
		b.sendMessage(chatID, "⚠️ Could not load reports.")
		return
	}
	if len(reports) == 0 {
		b.sendMessage(chatID, msgNoReports)
		return
	}

	var sb strings.Builder
	sb.WriteString("*📍 Latest Pothole Locations:*\n\n")
	for _, r := range reports {
		fmt.Fprintf(&sb, "• %s, %s — %s (%.4f, %.4f)\n",
			r.Place.Street, r.Place.City, r.Severity.Level,
			r.Location.Latitude, r.Location.Longitude)
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleMap(ctx context.Context, chatID int64) {
	reports, err := b.reports.GetReports(ctx, defaultListLimit)
	if err != nil {
		log.Errorf("Failed to load reports: %v", err)
		b.sendMessage(chatID, "⚠️ Could not load reports.")
		return
	}
	if len(reports) == 0 {
		b.sendMessage(chatID, msgNoReports)
		return
	}

	text := fmt.Sprintf("📍 *Pothole Locations Map*\n\nTotal locations: %d\n[View on Google Maps](%s)",
		len(reports), routeURL(reports))
	b.sendMessage(chatID, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Failed to send telegram message: %v", err)
	}
}

func pointURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.6f,%.6f", lat, lon)
}

// routeURL builds a Google Maps directions link visiting every report,
// with the most recent one as the destination.
func routeURL(reports []models.Report) string {
	coords := make([]string, len(reports))
	for i, r := range reports {
		coords[i] = fmt.Sprintf("%.6f,%.6f", r.Location.Latitude, r.Location.Longitude)
	}

	u := "https://www.google.com/maps/dir/?api=1&destination=" + coords[0]
	if len(coords) > 1 {
		u += "&waypoints=" + url.QueryEscape(strings.Join(coords[1:], "|"))
	}
	return u
}
