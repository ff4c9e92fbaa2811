package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"todolist/internal/export"
)

// ReportSender delivers a rendered report somewhere outside the process.
type ReportSender interface {
	SendReport(ctx context.Context, fileName string, data []byte) error
}

// RenderReport serializes report rows as CSV with a header line.
func RenderReport(rows []TaskReportRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReportJob writes today's report to a directory and optionally hands it to
// a sender. It is meant to run once at the end of the day.
type ReportJob struct {
	tasks  *TaskService
	dir    string
	sender ReportSender
	logger *log.Logger
}

func NewReportJob(tasks *TaskService, dir string, sender ReportSender, logger *log.Logger) *ReportJob {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ReportJob{tasks: tasks, dir: dir, sender: sender, logger: logger}
}

// Build renders today's report and returns its file name and CSV content.
func (j *ReportJob) Build(ctx context.Context) (string, []byte, error) {
	resp := j.tasks.CalculateCompletedTask(ctx)
	if !resp.OK() {
		return "", nil, errors.New(resp.Description)
	}
	data, err := RenderReport(resp.Data)
	if err != nil {
		return "", nil, err
	}
	return ReportFileName(j.tasks.Now()), data, nil
}

// Run builds the report, stores it under the job directory and sends it.
// It returns the written path, or "" when no directory is configured.
func (j *ReportJob) Run(ctx context.Context) (string, error) {
	name, data, err := j.Build(ctx)
	if err != nil {
		return "", fmt.Errorf("build report: %w", err)
	}

	var path string
	if j.dir != "" {
		if err := os.MkdirAll(j.dir, 0o755); err != nil {
			return "", fmt.Errorf("create report dir %q: %w", j.dir, err)
		}
		path = filepath.Join(j.dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	if j.sender != nil {
		if err := j.sender.SendReport(ctx, name, data); err != nil {
			return path, fmt.Errorf("send report: %w", err)
		}
	}

	j.logger.WithFields(log.Fields{"file": name, "path": path, "bytes": len(data)}).Info("daily report generated")
	return path, nil
}
