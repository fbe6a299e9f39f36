package report

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spendwise/internal/scheduler"
)

// maxListedFailures caps how many failed items the text summary lists.
const maxListedFailures = 10

type style struct {
	bold   func(string) string
	escape func(string) string
}

func same(s string) string { return s }

var (
	plain    = style{bold: same, escape: same}
	markdown = style{
		bold:   func(s string) string { return "*" + s + "*" },
		escape: func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) },
	}
)

// FormatSummary renders a pass summary as plain text for a terminal.
func FormatSummary(sum scheduler.Summary) string {
	return format(sum, plain)
}

// FormatMarkdown renders a pass summary for a Telegram message sent with
// ParseMode Markdown. User and recurrence ids are escaped.
func FormatMarkdown(sum scheduler.Summary) string {
	return format(sum, markdown)
}

func format(sum scheduler.Summary, st style) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🔁 %s\n", st.bold("RECURRING TRANSACTIONS"))
	b.WriteString("═══════════════════\n\n")
	fmt.Fprintf(&b, "📅 %s (%s)\n\n", sum.At.Format("2006-01-02"), sum.Duration().Round(time.Millisecond))

	if sum.Users == 0 {
		b.WriteString("❌ No users found\n")
		return b.String()
	}

	fmt.Fprintf(&b, "📊 %s\n", st.bold("Run Summary:"))
	fmt.Fprintf(&b, "   • Users: %d\n", sum.Users)
	fmt.Fprintf(&b, "   • Recurrences checked: %d\n", sum.Processed)
	fmt.Fprintf(&b, "   • Pushed: %s\n", st.bold(fmt.Sprint(sum.Pushed)))
	fmt.Fprintf(&b, "   • Skipped: %d (lost races: %d)\n", sum.Skipped, sum.LostRaces)
	if sum.Malformed > 0 {
		fmt.Fprintf(&b, "   • Malformed schedules: %d\n", sum.Malformed)
	}
	fmt.Fprintf(&b, "   • Trash removed: %d\n\n", sum.TrashRemoved)

	if sum.Failed == 0 {
		b.WriteString("✅ No failures\n")
		return b.String()
	}

	fmt.Fprintf(&b, "⚠️ %s\n", st.bold(fmt.Sprintf("Failures: %d", sum.Failed)))
	listed := 0
	for _, it := range sum.Items {
		if it.Status != scheduler.StatusFailed {
			continue
		}
		if listed == maxListedFailures {
			fmt.Fprintf(&b, "   … and %d more\n", sum.Failed-listed)
			break
		}
		fmt.Fprintf(&b, "   %s / %s\n", st.escape(it.UserID), st.escape(target(it)))
		listed++
	}
	return b.String()
}

func target(it scheduler.ItemResult) string {
	switch it.Kind {
	case scheduler.KindTrash:
		return "trash"
	case scheduler.KindUser:
		return "document"
	}
	return it.RecurrenceID
}
