package stock

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Processor копит обновления остатков и применяет их пакетами: либо по
// наполнению batchSize, либо по таймеру. Сглаживает всплески при массовых
// выгрузках из учётной системы.
type Processor struct {
	updater *BatchUpdater
	logger  *log.Entry

	batchSize    int
	flushTimeout time.Duration

	updateCh chan Update
	stopCh   chan struct{}
	wg       sync.WaitGroup

	batch []Update
	mu    sync.Mutex
}

// NewProcessor создаёт процессор с настройками по умолчанию.
func NewProcessor(updater *BatchUpdater, logger *log.Entry) *Processor {
	if logger == nil {
		logger = log.New().WithField("component", "stock-processor")
	}
	return &Processor{
		updater:      updater,
		logger:       logger,
		batchSize:    50,
		flushTimeout: 200 * time.Millisecond,
		updateCh:     make(chan Update, 500),
		stopCh:       make(chan struct{}),
	}
}

// Start запускает фоновую обработку.
func (p *Processor) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.Info("stock processor started")
}

// Stop останавливает процессор, дожидаясь применения накопленного пакета.
func (p *Processor) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("stock processor stopped")
}

// Submit ставит обновление в очередь. При переполненном канале обновление
// применяется синхронно, чтобы не потерять его.
func (p *Processor) Submit(ctx context.Context, update Update) {
	select {
	case p.updateCh <- update:
	default:
		p.logger.WithField("sku", update.SKU).Warn("update channel full, applying synchronously")
		p.updater.Apply(ctx, []Update{update})
	}
}

func (p *Processor) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.flush(context.Background())
			return
		case <-p.stopCh:
			p.drain()
			p.flush(context.Background())
			return
		case update := <-p.updateCh:
			p.mu.Lock()
			p.batch = append(p.batch, update)
			shouldFlush := len(p.batch) >= p.batchSize
			p.mu.Unlock()

			if shouldFlush {
				p.flush(ctx)
			}
		case <-ticker.C:
			p.flush(ctx)
		}
	}
}

// drain забирает из канала всё, что успели поставить в очередь до
// остановки.
func (p *Processor) drain() {
	for {
		select {
		case update := <-p.updateCh:
			p.mu.Lock()
			p.batch = append(p.batch, update)
			p.mu.Unlock()
		default:
			return
		}
	}
}

func (p *Processor) flush(ctx context.Context) {
	p.mu.Lock()
	batch := p.batch
	p.batch = nil
	p.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	p.logger.WithField("batch_size", len(batch)).Debug("applying stock batch")
	p.updater.Apply(ctx, batch)
}
