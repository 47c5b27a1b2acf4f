package bot

import (
	"log"
	"sync"
	"time"

	"moderation-bot/tasks"
)

// Scheduler manages the bot-level periodic tasks. Sanction expiry has its own
// machinery in the moderation package; this only covers reporting.
type Scheduler struct {
	bot         *Bot
	done        chan struct{}
	wg          sync.WaitGroup
	statsTicker *time.Ticker
}

var (
	schedulerOnce sync.Once
	scheduler     *Scheduler
)

// GetScheduler returns the bot's task scheduler, creating it on first use.
func (b *Bot) GetScheduler() *Scheduler {
	schedulerOnce.Do(func() {
		scheduler = &Scheduler{
			bot:  b,
			done: b.done,
		}
	})
	return scheduler
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start() {
	s.wg.Add(2)

	go s.startScheduledTasks()
	go s.startDailyTasks()
}

func (s *Scheduler) startScheduledTasks() {
	defer s.wg.Done()
	s.statsTicker = time.NewTicker(1 * time.Hour)
	defer s.statsTicker.Stop()

	for {
		select {
		case <-s.statsTicker.C:
			log.Println("Updating moderation stats...")
			s.updateStats(time.Hour)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) startDailyTasks() {
	defer s.wg.Done()
	reportHour := 5 // 5 AM local time

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), reportHour, 0, 0, 0, now.Location())
		if !now.Before(next) {
			next = next.Add(24 * time.Hour)
		}

		log.Printf("Next daily moderation report scheduled for: %v", next)
		select {
		case <-time.After(next.Sub(now)):
			log.Println("Running daily moderation report...")
			s.updateStats(24 * time.Hour)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) updateStats(window time.Duration) {
	cfg := s.bot.GetConfig()
	for _, serverCfg := range cfg.ServerConfigs {
		if !serverCfg.Enable || serverCfg.ModLogChannelID == "" {
			continue
		}
		go tasks.UpdateInfractionStats(s.bot.GetSession(), s.bot.GetDB(), serverCfg, window)
	}
}
