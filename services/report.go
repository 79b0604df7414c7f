package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

// ReportService turns authorized conversations into summary reports via the
// inference provider.
type ReportService struct {
	DB        *gorm.DB
	Inference *InferenceClient
}

func NewReportService(db *gorm.DB, inference *InferenceClient) *ReportService {
	return &ReportService{DB: db, Inference: inference}
}

// transcript renders the window's messages as "username (or address): text"
// lines, preferring each sender's original-language text.
func (s *ReportService) transcript(conversationID uint, start, end time.Time) (string, int, error) {
	var messages []models.Message
	err := s.DB.Where("conversation_id = ? AND timestamp >= ? AND timestamp < ?", conversationID, start, end).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return "", 0, fmt.Errorf("load messages for conversation %d: %w", conversationID, err)
	}
	if len(messages) == 0 {
		return "", 0, nil
	}

	names := make(map[string]string)
	var sb strings.Builder
	for i := range messages {
		msg := &messages[i]
		name, ok := names[msg.Sender]
		if !ok {
			var user models.User
			if err := s.DB.Select("username").Where("address = ?", msg.Sender).First(&user).Error; err == nil && user.Username != "" {
				name = user.Username
			} else {
				name = msg.Sender
			}
			names[msg.Sender] = name
		}
		fmt.Fprintf(&sb, "%s: %s\n", name, msg.OriginalText())
	}

	return sb.String(), len(messages), nil
}

// GenerateForTask produces one report for an authorized task over [start,
// end). Windows with no messages are skipped (nil report, nil error).
func (s *ReportService) GenerateForTask(ctx context.Context, task models.AuthorizedTask, start, end time.Time) (*models.Report, error) {
	transcript, count, err := s.transcript(task.ConversationID, start, end)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(
		"Summarize the following conversation into a concise daily report in Markdown. "+
			"Cover the main topics, decisions and open items. Conversation:\n\n%s", transcript)

	content, err := s.Inference.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize conversation %d: %w", task.ConversationID, err)
	}

	report := models.Report{
		ID:             uuid.NewString(),
		UserAddress:    task.UserAddress,
		ConversationID: task.ConversationID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Content:        content,
	}

	if utils.R2Enabled() {
		title := fmt.Sprintf("conversation %d %s", task.ConversationID, end.Format("2006-01-02"))
		key := "reports/" + slug.Make(title) + "-" + report.ID[:8] + ".md"
		url, err := utils.UploadBytesToR2(ctx, key, "text/markdown", []byte(content))
		if err != nil {
			// The report is still stored; only the document copy is missing.
			log.Printf("[REPORTS] Upload failed for conversation %d: %v", task.ConversationID, err)
		} else {
			report.DocumentURL = url
		}
	}

	if err := s.DB.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("store report for conversation %d: %w", task.ConversationID, err)
	}
	return &report, nil
}

// RunAll generates reports for every active authorization. Per-task failures
// are logged and skipped so one bad conversation cannot starve the rest.
func (s *ReportService) RunAll(ctx context.Context, start, end time.Time) (int, error) {
	if !s.Inference.Enabled() {
		return 0, fmt.Errorf("inference endpoint not configured")
	}

	var tasks []models.AuthorizedTask
	if err := s.DB.Where("active = ?", true).Find(&tasks).Error; err != nil {
		return 0, fmt.Errorf("load authorized tasks: %w", err)
	}

	generated := 0
	for _, task := range tasks {
		report, err := s.GenerateForTask(ctx, task, start, end)
		if err != nil {
			log.Printf("[REPORTS] Task %d failed: %v", task.ID, err)
			continue
		}
		if report != nil {
			generated++
		}
	}
	return generated, nil
}

// RunNow is the internal manual trigger. Defaults to the previous 24 hours.
func (s *ReportService) RunNow(c *fiber.Ctx) error {
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start, want RFC 3339"})
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid end, want RFC 3339"})
		}
		end = parsed
	}

	generated, err := s.RunAll(c.Context(), start, end)
	if err != nil {
		log.Printf("[REPORTS] Manual run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "report generation failed"})
	}

	return c.JSON(fiber.Map{"success": true, "generated": generated})
}
