package dataimport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type fileImporter interface {
	ImportFile(ctx context.Context, path string, move bool) (domain.Result, error)
}

type inboundLister interface {
	ListInbound() ([]string, error)
}

type PollerConfig struct {
	Interval time.Duration
}

// Poller imports the inbound folder on a fixed delay. A tick that is still
// running delays the next one instead of overlapping it.
type Poller struct {
	importer fileImporter
	inbound  inboundLister
	cfg      PollerConfig
	log      logrus.FieldLogger

	once sync.Once
}

func NewPoller(importer fileImporter, inbound inboundLister, cfg PollerConfig, log logrus.FieldLogger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &Poller{
		importer: importer,
		inbound:  inbound,
		cfg:      cfg,
		log:      log,
	}
}

// Start schedules the poll and stops it when ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	var startErr error
	p.once.Do(func() {
		logger := cron.PrintfLogger(p.log)
		c := cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.DelayIfStillRunning(logger),
		))
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", p.cfg.Interval), func() { p.Poll(ctx) }); err != nil {
			startErr = fmt.Errorf("schedule inbound poll: %w", err)
			return
		}
		c.Start()

		go func() {
			<-ctx.Done()
			<-c.Stop().Done()
		}()
	})
	return startErr
}

// Poll imports every inbound file, oldest first, and returns how many it handled.
func (p *Poller) Poll(ctx context.Context) int {
	files, err := p.inbound.ListInbound()
	if err != nil {
		p.log.Errorf("list inbound folder: %v", err)
		return 0
	}

	handled := 0
	for _, file := range files {
		select {
		case <-ctx.Done():
			return handled
		default:
		}

		result, err := p.importer.ImportFile(ctx, file, true)
		handled++
		if err != nil {
			p.log.WithField("file", file).Errorf("import file failed: %v", err)
			continue
		}
		p.log.WithFields(logrus.Fields{"file": file, "ok": result.OK}).Info(result.Message)
	}
	return handled
}
