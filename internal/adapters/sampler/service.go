package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/quote-engine/internal/adapters/persistence"
	"github.com/hxuan190/quote-engine/internal/config"
	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/metrics"
)

const SAMPLER_SERVICE = "sampler-service"

// Service owns the synthetic sampler's lifecycle: it hydrates the pool set
// from disk at startup and batch-persists it on an interval.
type Service struct {
	container.BaseDIInstance

	config  *config.QuoteConfig
	storage *persistence.Storage
	sampler *SyntheticSampler

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func (svc *Service) ID() string {
	return SAMPLER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.config = c.GetConfig(config.QUOTE_CONFIG_KEY).(*config.QuoteConfig)
	svc.sampler = NewSyntheticSampler()
	svc.stopCh = make(chan struct{})
	return nil
}

func (svc *Service) Start() error {
	if !svc.config.PersistenceEnabled {
		log.Info().Msg("[samplerService] persistence disabled, starting with empty pool set")
		return nil
	}

	storage, err := persistence.NewStorage(svc.config.DBPath)
	if err != nil {
		return err
	}
	svc.storage = storage

	pools, err := storage.LoadAllPools()
	if err != nil {
		return err
	}
	svc.sampler.SetPools(pools)
	svc.publishPoolMetrics(pools)
	log.Info().Int("count", len(pools)).Msg("[samplerService] hydrated pool set")

	interval := time.Duration(svc.config.PersistInterval) * time.Second
	svc.wg.Add(1)
	go svc.persistLoop(interval)
	return nil
}

func (svc *Service) Stop() error {
	close(svc.stopCh)
	svc.wg.Wait()

	if svc.storage == nil {
		return nil
	}
	if err := svc.storage.SavePoolBatch(svc.sampler.Pools()); err != nil {
		log.Error().Err(err).Msg("[samplerService] final pool persist failed")
	}
	return svc.storage.Close()
}

// Sampler exposes the underlying sampler for wiring into the market facade.
func (svc *Service) Sampler() *SyntheticSampler {
	return svc.sampler
}

func (svc *Service) persistLoop(interval time.Duration) {
	defer svc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopCh:
			return
		case <-ticker.C:
			pools := svc.sampler.Pools()
			if err := svc.storage.SavePoolBatch(pools); err != nil {
				log.Error().Err(err).Msg("[samplerService] periodic pool persist failed")
				continue
			}
			svc.publishPoolMetrics(pools)
		}
	}
}

func (svc *Service) publishPoolMetrics(pools []*domain.Pool) {
	counts := make(map[domain.Source]int)
	for _, p := range pools {
		counts[p.Source]++
	}
	for source, n := range counts {
		metrics.PoolCacheSize.WithLabelValues(source.String()).Set(float64(n))
	}
}

// PoolsCache adapts the sampler's pool set to the market facade's cache
// interface for one registry-style source.
type PoolsCache struct {
	svc    *Service
	source domain.Source
	ttl    time.Duration

	mu        sync.Mutex
	refreshed map[[2]common.Address]time.Time
}

func NewPoolsCache(svc *Service, source domain.Source, ttl time.Duration) *PoolsCache {
	return &PoolsCache{
		svc:       svc,
		source:    source,
		ttl:       ttl,
		refreshed: make(map[[2]common.Address]time.Time),
	}
}

func pairKey(takerToken, makerToken common.Address) [2]common.Address {
	if takerToken.Cmp(makerToken) > 0 {
		takerToken, makerToken = makerToken, takerToken
	}
	return [2]common.Address{takerToken, makerToken}
}

// RefreshPair re-stamps the source's pools for the pair and persists them.
func (c *PoolsCache) RefreshPair(_ context.Context, takerToken, makerToken common.Address) error {
	now := time.Now()
	var touched []*domain.Pool
	for _, pool := range c.svc.sampler.Pools() {
		if pool.Source == c.source && pool.HasPair(takerToken, makerToken) {
			pool.LastRefreshedUnix = now.Unix()
			touched = append(touched, pool)
		}
	}
	if c.svc.storage != nil && len(touched) > 0 {
		if err := c.svc.storage.SavePoolBatch(touched); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.refreshed[pairKey(takerToken, makerToken)] = now
	c.mu.Unlock()
	return nil
}

func (c *PoolsCache) IsFresh(takerToken, makerToken common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.refreshed[pairKey(takerToken, makerToken)]
	return ok && time.Since(at) < c.ttl
}
