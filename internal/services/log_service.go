// internal/services/log_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/telemetry"
	"github.com/javajoker/abc-retail/internal/utils"
)

// Log files written by the workflows
const (
	LogFileCheckout   = "checkout_orders.log"
	LogFileProducts   = "product_operations.log"
	LogFileCustomers  = "customer_operations.log"
	LogFileImages     = "image_operations.log"
	LogFileProcessed  = "processed_orders.log"
	LogFileInventory  = "processed_inventory.log"
	LogFileLifecycle  = "lifecycle_events.log"
	LogFileShipping   = "shipping_operations.log"
	LogFileAdmin      = "admin_activities.log"
	LogFileQueueAdmin = "queue_operations.log"
	LogFileDeadLetter = "dead_letter_messages.log"
)

// LogOutcome is the result of a best-effort log append. Callers decide
// whether a failure matters; the workflows record it and carry on.
type LogOutcome struct {
	Path string `json:"path,omitempty"`
	Err  error  `json:"-"`
}

func (o LogOutcome) OK() bool {
	return o.Err == nil
}

type LogService struct {
	store storage.LogStore
	now   func() time.Time
}

type LogFile struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

type CreateLogEntryRequest struct {
	Category string `json:"category" form:"category" validate:"required,log_category"`
	FileName string `json:"file_name" form:"file_name" validate:"required,file_name"`
	Content  string `json:"content" form:"content" validate:"required,max=65536"`
}

func NewLogService(store storage.LogStore) *LogService {
	return &LogService{store: store, now: time.Now}
}

// Write appends an entry and never fails the caller.
func (s *LogService) Write(ctx context.Context, category models.LogCategory, fileName, content string) LogOutcome {
	path, err := s.store.Append(ctx, string(category), fileName, s.stampEntry(content))
	if err != nil {
		telemetry.LogWrites.WithLabelValues(string(category), telemetry.OutcomeFailure).Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"category": category,
			"file":     fileName,
		}).Warn("Failed to write operational log")
		return LogOutcome{Err: err}
	}
	telemetry.LogWrites.WithLabelValues(string(category), telemetry.OutcomeSuccess).Inc()
	return LogOutcome{Path: path}
}

// CreateEntry is the explicit admin action; unlike Write its failure is returned.
func (s *LogService) CreateEntry(ctx context.Context, adminID string, req *CreateLogEntryRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	content := fmt.Sprintf("Created by %s\n%s", adminID, req.Content)
	path, err := s.store.Append(ctx, req.Category, req.FileName, s.stampEntry(content))
	if err != nil {
		return "", fmt.Errorf("failed to create log entry: %w", err)
	}
	return path, nil
}

// ListFiles returns the files of a category, newest first.
func (s *LogService) ListFiles(ctx context.Context, category models.LogCategory) ([]LogFile, error) {
	if !category.Valid() {
		return nil, &FieldError{Field: "category", Message: "unknown log category"}
	}
	paths, err := s.store.List(ctx, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	files := make([]LogFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, LogFile{
			Path:     p,
			Category: storage.CategoryOf(p),
			Name:     strings.TrimPrefix(p, string(category)+"/"),
		})
	}
	return files, nil
}

func (s *LogService) ReadFile(ctx context.Context, path string) (string, error) {
	if strings.Contains(path, "..") || !models.LogCategory(storage.CategoryOf(path)).Valid() {
		return "", &FieldError{Field: "path", Message: "invalid log path"}
	}
	content, err := s.store.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read log file: %w", err)
	}
	return content, nil
}

func (s *LogService) stampEntry(content string) string {
	return fmt.Sprintf("[%s] %s\n", s.now().UTC().Format("2006-01-02 15:04:05 UTC"), content)
}
