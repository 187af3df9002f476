package orders

import (
	"context"
	"log"
	"time"
)

// SweepProcessor runs the cash-hold expiry sweep on a fixed cadence.
type SweepProcessor struct {
	service Service
	config  *SweepConfig
	done    chan struct{}
}

// SweepConfig contains configuration for the sweep job
type SweepConfig struct {
	Interval time.Duration
}

// DefaultSweepConfig returns default sweep configuration
func DefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Interval: 5 * time.Minute,
	}
}

// NewSweepProcessor creates a new sweep processor
func NewSweepProcessor(service Service, config *SweepConfig) *SweepProcessor {
	if config == nil {
		config = DefaultSweepConfig()
	}

	return &SweepProcessor{
		service: service,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start starts the background sweep
func (sp *SweepProcessor) Start(ctx context.Context) {
	log.Println("Starting cash hold sweep...")
	go sp.run(ctx)
}

// Stop stops the background sweep
func (sp *SweepProcessor) Stop() {
	log.Println("Stopping cash hold sweep...")
	close(sp.done)
}

func (sp *SweepProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(sp.config.Interval)
	defer ticker.Stop()

	log.Printf("Started cash hold sweep with %v interval", sp.config.Interval)

	for {
		select {
		case <-ticker.C:
			sp.sweep(ctx)
		case <-sp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sp *SweepProcessor) sweep(ctx context.Context) {
	result, err := sp.service.SweepExpiredCashHolds(ctx)
	if err != nil {
		log.Printf("Error sweeping expired cash holds: %v", err)
		return
	}

	if result.ExpiredCount > 0 {
		log.Printf("Expired %d cash orders, released %d tickets", result.ExpiredCount, result.TicketsReleased)
	}
}

// GetJobStatus returns the status of the sweep job
func (sp *SweepProcessor) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"sweep_interval": sp.config.Interval.String(),
		"status":         "running",
	}
}
