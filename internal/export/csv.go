// Package export serializes finalized sessions and treatment-plan data to
// CSV and HTML reports. Everything here is read-only over the data model; no
// export is ever re-imported.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/harrison/baseline/internal/models"
)

// WriteSessionCSV writes one row per tracked behavior of a session.
func WriteSessionCSV(w io.Writer, client *models.Client, session *models.Session) error {
	cw := csv.NewWriter(w)

	header := []string{
		"client", "session_id", "session_date", "behavior", "data_type",
		"count", "duration_seconds", "intervals_occurred", "intervals_total",
		"trials_correct", "trials_total", "abc_records",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	date := session.StartTime.Format("2006-01-02")
	for _, data := range session.Behaviors {
		occurred := 0
		for _, hit := range data.Intervals {
			if hit {
				occurred++
			}
		}
		row := []string{
			client.Name,
			session.ID,
			date,
			data.BehaviorName,
			string(data.DataType),
			fmt.Sprintf("%d", data.Count),
			fmt.Sprintf("%.1f", float64(data.TotalDurationMs)/1000),
			fmt.Sprintf("%d", occurred),
			fmt.Sprintf("%d", len(data.Intervals)),
			fmt.Sprintf("%d", data.CorrectTrials),
			fmt.Sprintf("%d", data.TotalTrials),
			fmt.Sprintf("%d", len(data.ABCRecords)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", data.BehaviorName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteABCLogCSV writes every ABC record of a session, one observation per
// row, in capture order.
func WriteABCLogCSV(w io.Writer, session *models.Session) error {
	cw := csv.NewWriter(w)

	header := []string{"behavior", "timestamp", "antecedent", "antecedent_note", "consequence", "consequence_note"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, data := range session.Behaviors {
		for _, rec := range data.ABCRecords {
			row := []string{
				data.BehaviorName,
				rec.Timestamp.Format(time.RFC3339),
				string(rec.Antecedent),
				rec.AntecedentNote,
				string(rec.Consequence),
				rec.ConsequenceNote,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write abc row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
