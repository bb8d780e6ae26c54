package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/baseline/internal/models"
	"github.com/harrison/baseline/internal/progress"
)

// SessionReportMarkdown renders a finalized session as a markdown document.
func SessionReportMarkdown(client *models.Client, session *models.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session Report: %s\n\n", client.Name)
	fmt.Fprintf(&b, "**Date:** %s  \n", session.StartTime.Format("January 2, 2006"))
	fmt.Fprintf(&b, "**Start:** %s  \n", session.StartTime.Format("15:04"))
	if session.EndTime != nil {
		fmt.Fprintf(&b, "**End:** %s  \n", session.EndTime.Format("15:04"))
		fmt.Fprintf(&b, "**Duration:** %s  \n", progress.FormatSeconds(float64(session.DurationMs)/1000))
	}
	b.WriteString("\n")

	if meta := session.Meta; meta != (models.SessionNotes{}) {
		b.WriteString("## Session Details\n\n")
		writeMetaLine(&b, "Focus", meta.Focus)
		writeMetaLine(&b, "Location", meta.Location)
		writeMetaLine(&b, "Units", meta.Units)
		writeMetaLine(&b, "Service type", meta.ServiceType)
		writeMetaLine(&b, "Participation", meta.Participation)
		b.WriteString("\n")
	}

	b.WriteString("## Behavior Data\n\n")
	b.WriteString("| Behavior | Type | Result |\n|---|---|---|\n")
	for _, data := range session.Behaviors {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", data.BehaviorName, data.DataType, summarize(data))
	}
	b.WriteString("\n")

	for _, data := range session.Behaviors {
		if len(data.ABCRecords) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## ABC Log: %s\n\n", data.BehaviorName)
		for _, rec := range data.ABCRecords {
			fmt.Fprintf(&b, "- **%s**: antecedent: %s, consequence: %s\n",
				rec.Timestamp.Format("15:04:05"), abcLabel(string(rec.Antecedent), rec.AntecedentNote),
				abcLabel(string(rec.Consequence), rec.ConsequenceNote))
		}
		b.WriteString("\n")
	}

	if session.Notes != "" {
		fmt.Fprintf(&b, "## Notes\n\n%s\n", session.Notes)
	}

	return b.String()
}

// GoalReportMarkdown renders a treatment goal with its computed progress,
// trend and objective ladder.
func GoalReportMarkdown(goal *models.TreatmentGoal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Goal %s\n\n", goal.GoalID)
	if goal.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", goal.Description)
	}
	fmt.Fprintf(&b, "**Baseline:** %g  \n**Mastery criteria:** %g  \n**Status:** %s  \n\n",
		goal.Baseline, goal.MasteryCriteria, goal.Status)

	var current *float64
	for i := len(goal.ProgressData) - 1; i >= 0; i-- {
		if goal.ProgressData[i].Value != nil {
			current = goal.ProgressData[i].Value
			break
		}
	}
	pct := progress.ProgressPercentage(goal.Baseline, current, goal.MasteryCriteria, goal.MeasurementType)
	trend := progress.ClassifyTrend(goal.ProgressData, goal.MeasurementType)
	mastered := progress.CheckMastery(goal.ProgressData, goal.MasteryCriteria, goal.Decreasing())

	fmt.Fprintf(&b, "**Progress:** %.0f%%  \n**Trend:** %s  \n**Mastery criteria met:** %t  \n\n", pct, trend, mastered)

	if len(goal.ShortTermObjectives) > 0 {
		b.WriteString("## Short-Term Objectives\n\n")
		b.WriteString("| # | Objective | Target | Status |\n|---|---|---|---|\n")
		for _, sto := range goal.ShortTermObjectives {
			fmt.Fprintf(&b, "| %d | %s | %g %s | %s |\n",
				sto.STONumber, sto.Description, sto.Target, sto.Unit, sto.Status)
		}
		b.WriteString("\n")
	}

	if len(goal.ProgressData) > 0 {
		b.WriteString("## Monthly Progress\n\n| Month | Value |\n|---|---|\n")
		for _, sample := range goal.ProgressData {
			value := "n/a"
			if sample.Value != nil {
				value = fmt.Sprintf("%g", *sample.Value)
			}
			fmt.Fprintf(&b, "| %s | %s |\n", sample.Month, value)
		}
	}

	return b.String()
}

// RenderHTML converts a markdown report to a standalone HTML document.
func RenderHTML(title, markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", title)
	doc.WriteString("</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.String(), nil
}

func writeMetaLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s  \n", label, value)
}

func abcLabel(value, note string) string {
	if note == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, note)
}

// summarize renders one behavior's result in the unit of its data type.
func summarize(data models.BehaviorData) string {
	switch data.DataType {
	case models.DataTypeFrequency:
		return fmt.Sprintf("%d occurrences", data.Count)
	case models.DataTypeDuration:
		return progress.FormatSeconds(float64(data.TotalDurationMs) / 1000)
	case models.DataTypeInterval:
		occurred := 0
		for _, hit := range data.Intervals {
			if hit {
				occurred++
			}
		}
		if len(data.Intervals) == 0 {
			return "no intervals recorded"
		}
		return fmt.Sprintf("%d/%d intervals (%.0f%%)", occurred, len(data.Intervals),
			float64(occurred)/float64(len(data.Intervals))*100)
	case models.DataTypeEvent:
		if data.TotalTrials == 0 {
			return "no trials recorded"
		}
		return fmt.Sprintf("%d/%d correct (%.0f%%)", data.CorrectTrials, data.TotalTrials,
			float64(data.CorrectTrials)/float64(data.TotalTrials)*100)
	case models.DataTypeDeceleration:
		return fmt.Sprintf("%d occurrences, %s, %d ABC records", data.Count,
			progress.FormatSeconds(float64(data.TotalDurationMs)/1000), len(data.ABCRecords))
	default:
		return "n/a"
	}
}
