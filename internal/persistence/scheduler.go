package persistence

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	registry    interfaces.SessionRegistry
	fileManager *FileManager
	cold        *ColdStorage
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Persistence.SaveInterval

	s.cron.AddFunc(gron.Every(interval*time.Second), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if n := s.registry.EvictIdle(); n > 0 {
			s.logger.Infof(providers.TypeApp, "Moved %d idle sessions to cold storage", n)
		}
		if err := s.flushLocked(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting sessions: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted sessions to file %s", s.config.Persistence.FilePath)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if s.cold != nil {
		if err := s.cold.RestoreIndex(); err != nil {
			return err
		}
	}
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting sessions to file...")
	if err := s.flushLocked(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting sessions: %s", err)
		return err
	}
	return nil
}

func (s *Scheduler) flushLocked() error {
	if err := s.fileManager.SaveToFile(s.config.Persistence.FilePath); err != nil {
		return err
	}
	if s.cold != nil {
		return s.cold.Flush()
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, registry interfaces.SessionRegistry, fileManager *FileManager, cold *ColdStorage) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		registry:    registry,
		fileManager: fileManager,
		cold:        cold,
	}
}
