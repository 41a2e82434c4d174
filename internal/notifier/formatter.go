package notifier

import (
	"fmt"
	"strings"

	"RateProjector/internal/model"
	"RateProjector/internal/recorder"
)

// FormatProjection formats a projection run into a Telegram message.
func FormatProjection(p *model.Projection, xSymbol, ySymbol string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>RateProjector</b> | %s\n\n", p.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Mode: %s (%d dates)\n", p.Mode, p.Keys))
	b.WriteString(fmt.Sprintf("Collected: %d | Skipped: %d\n", p.Collected(), p.Skipped()))

	switch p.Status {
	case model.FetchStatusOffline:
		b.WriteString("⚠️ Went offline, fitted on partial data\n")
	case model.FetchStatusCancelled:
		b.WriteString("⚠️ Run cancelled, fitted on partial data\n")
	}

	if !p.OK() {
		b.WriteString(fmt.Sprintf("\n❌ <b>No projection:</b> %s\n", p.FitError))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\n%s = %.6f + %.6f × %s\n", ySymbol, p.Model.Intercept, p.Model.Slope, xSymbol))
	b.WriteString(fmt.Sprintf("💱 <b>%s at %s=%.4f:</b> %.4f\n", ySymbol, xSymbol, p.QueryPoint, p.Predicted))
	return b.String()
}

// FormatHistory formats recent run summaries.
func FormatHistory(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		result := fmt.Sprintf("%.4f", r.Predicted)
		if r.FitError != "" {
			result = "no fit"
		}
		b.WriteString(fmt.Sprintf("%s %s %d/%d %s → %s\n",
			r.Timestamp.Format("01-02 15:04"), r.Mode, r.Collected, r.Keys, strings.ToLower(r.Status), result))
	}
	return b.String()
}

// HelpText lists the bot commands.
const HelpText = "Commands:\n• /predict - run a projection now\n• /latest - show the last projection\n• /history - recent runs"
