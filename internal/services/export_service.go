package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// Workbook sheet names
const (
	SheetItems      = "Items"
	SheetErrorTypes = "Error Types"
	SheetCategories = "NEA Categories"
)

func (s *analyticsService) ExportWorkbook(ctx context.Context, sess *models.Session, question string, n int) (data []byte, err error) {
	start := time.Now()
	defer func() {
		s.logger.LogOperation(ctx, "export_workbook", sess.ID, sess.ActiveDatasetID(), time.Since(start), err,
			slog.String("question", question), slog.Int("bytes", len(data)))
	}()

	items, err := s.GetDifficultyDiscrimination(ctx, sess)
	if err != nil {
		return nil, err
	}

	var (
		errorTypes *analytics.ErrorTypeReport
		categories *analytics.CategoryReport
	)
	if question != "" {
		if errorTypes, err = s.GetTopErrorTypes(ctx, sess, question, n); err != nil {
			return nil, err
		}
		if categories, err = s.GetErrorCategoryBreakdown(ctx, sess, question); err != nil {
			return nil, err
		}
	}

	return renderWorkbook(items, errorTypes, categories)
}

func renderWorkbook(items *analytics.ItemAnalysisReport, errorTypes *analytics.ErrorTypeReport, categories *analytics.CategoryReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetItems); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"Question", "Responses", "Difficulty Index", "Upper Pass Count", "Lower Pass Count", "Discrimination Index"}}
	for _, item := range items.Items {
		rows = append(rows, []interface{}{
			item.Question, item.Responses, item.DifficultyIndex,
			item.UpperPassCount, item.LowerPassCount, item.DiscriminationIndex,
		})
	}
	if err := writeRows(f, SheetItems, rows); err != nil {
		return nil, err
	}

	if errorTypes != nil {
		rows = [][]interface{}{{"Error Type", "Frequency", "Percentage"}}
		for _, e := range errorTypes.Errors {
			rows = append(rows, []interface{}{e.Tag, e.Frequency, e.Percentage})
		}
		if errorTypes.Status.IsEmpty() {
			rows = append(rows, []interface{}{errorTypes.Status.Message()})
		}
		if err := addSheet(f, SheetErrorTypes, rows); err != nil {
			return nil, err
		}
	}

	if categories != nil {
		rows = [][]interface{}{{"Category", "Frequency", "Percentage"}}
		for _, c := range categories.Categories {
			rows = append(rows, []interface{}{c.Label, c.Frequency, c.Percentage})
		}
		if categories.Status.IsEmpty() {
			rows = append(rows, []interface{}{categories.Status.Message()})
		}
		if err := addSheet(f, SheetCategories, rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
