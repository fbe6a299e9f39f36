package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"spendwise/internal/scheduler"
)

// GenerateRunCSV writes the summary and per-item outcomes of one pass as CSV.
func GenerateRunCSV(sum scheduler.Summary, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	// Header section
	header := [][]string{
		{"Recurring Transactions Run"},
		{"Run ID", sum.RunID},
		{"Evaluated At", sum.At.Format("2006-01-02 15:04:05 MST")},
		{"Duration", sum.Duration().Round(time.Millisecond).String()},
		{}, // Empty row
		{"SUMMARY"},
		{"Users", strconv.Itoa(sum.Users)},
		{"Processed", strconv.Itoa(sum.Processed)},
		{"Pushed", strconv.Itoa(sum.Pushed)},
		{"Skipped", strconv.Itoa(sum.Skipped)},
		{"Lost Races", strconv.Itoa(sum.LostRaces)},
		{"Malformed", strconv.Itoa(sum.Malformed)},
		{"Failed", strconv.Itoa(sum.Failed)},
		{"Trash Swept", strconv.Itoa(sum.TrashSwept)},
		{"Trash Removed", strconv.Itoa(sum.TrashRemoved)},
		{}, // Empty row
	}

	for _, row := range header {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	// Items section
	if len(sum.Items) > 0 {
		if err := csvWriter.Write([]string{"ITEMS"}); err != nil {
			return err
		}
		if err := csvWriter.Write([]string{"User", "Recurrence", "Kind", "Status", "Removed", "Error"}); err != nil {
			return err
		}

		for _, it := range sum.Items {
			removed := ""
			if it.Kind == scheduler.KindTrash {
				removed = strconv.Itoa(it.Removed)
			}
			row := []string{
				it.UserID,
				it.RecurrenceID,
				string(it.Kind),
				string(it.Status),
				removed,
				it.Error,
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// FileName returns the attachment name for a run report.
func FileName(sum scheduler.Summary) string {
	return fmt.Sprintf("recurring_%s.csv", sum.At.Format("2006-01-02"))
}
