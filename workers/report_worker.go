package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"wallet-chat-service/services"
)

// ReportWorker runs the daily summary-report job over all active
// authorizations, covering the previous 24-hour window.
type ReportWorker struct {
	Reports *services.ReportService

	scheduler gocron.Scheduler
}

func NewReportWorker(reports *services.ReportService) *ReportWorker {
	return &ReportWorker{Reports: reports}
}

// Start schedules the daily job (00:05 UTC) and kicks the scheduler off.
func (w *ReportWorker) Start() error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			end := time.Now().UTC()
			start := end.Add(-24 * time.Hour)

			generated, err := w.Reports.RunAll(context.Background(), start, end)
			if err != nil {
				log.Printf("[REPORTS] Scheduled run failed: %v", err)
				return
			}
			log.Printf("[REPORTS] Scheduled run generated %d report(s)", generated)
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	w.scheduler = scheduler
	return nil
}

// Stop shuts the scheduler down; in-flight jobs finish first.
func (w *ReportWorker) Stop() {
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			log.Printf("[REPORTS] Scheduler shutdown: %v", err)
		}
	}
}
