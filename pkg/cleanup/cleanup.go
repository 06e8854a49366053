package cleanup

import (
	"log"
	"time"

	"fleet-console/internal/repository"
)

// CleanupService prunes resolved alerts from the archive once they fall out
// of the retention window. Active alerts are never touched.
type CleanupService struct {
	archive   *repository.ArchiveRepository
	retention time.Duration
	interval  time.Duration
	stopChan  chan bool
}

func NewCleanupService(archive *repository.ArchiveRepository, retention, interval time.Duration) *CleanupService {
	return &CleanupService{
		archive:   archive,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan bool),
	}
}

// Start begins the cleanup service
func (s *CleanupService) Start() {
	log.Printf("Starting alert archive cleanup service (retention: %v, interval: %v)", s.retention, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run cleanup immediately on start
	s.pruneResolvedAlerts()

	for {
		select {
		case <-ticker.C:
			s.pruneResolvedAlerts()
		case <-s.stopChan:
			log.Println("Stopping alert archive cleanup service")
			return
		}
	}
}

// Stop stops the cleanup service
func (s *CleanupService) Stop() {
	s.stopChan <- true
}

func (s *CleanupService) pruneResolvedAlerts() {
	cutoff := time.Now().Add(-s.retention)
	count, err := s.archive.DeleteResolvedBefore(cutoff)
	if err != nil {
		log.Printf("Error pruning resolved alerts: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Pruned %d resolved alerts older than %v", count, s.retention)
	}
}
