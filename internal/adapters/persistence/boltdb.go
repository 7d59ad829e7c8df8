package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/quote-engine/internal/domain"
)

const (
	PoolsBucket = "pools"

	DefaultDBPath = "./data/quote-engine.db"
)

// StoredPool is the on-disk form of a pool. Big integers travel as decimal
// strings; addresses as hex.
type StoredPool struct {
	Source            string `json:"source"`
	Address           string `json:"address"`
	Token0            string `json:"token0"`
	Token1            string `json:"token1"`
	Reserve0          string `json:"reserve0"`
	Reserve1          string `json:"reserve1"`
	FeeBps            uint16 `json:"feeBps"`
	Stable            bool   `json:"stable,omitempty"`
	LastRefreshedUnix int64  `json:"lastRefreshedUnix"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[poolStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func poolKey(pool *domain.Pool) []byte {
	return []byte(pool.Source.String() + "|" + strings.ToLower(pool.Address.Hex()))
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}
	return s.db.Set(PoolsBucket, poolKey(pool), data)
}

func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(poolToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.Hex(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    poolKey(pool),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address.Hex(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[poolStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(pools)).Msg("[poolStorage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	failed := 0

	for key, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[poolStorage] failed to unmarshal pool, skipping")
			failed++
			continue
		}

		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[poolStorage] failed to convert stored pool, skipping")
			failed++
			continue
		}
		pools = append(pools, pool)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Int("failed", failed).
			Msg("[poolStorage] pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Msg("[poolStorage] pool loading completed successfully")
	}

	return pools, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func poolToStored(pool *domain.Pool) *StoredPool {
	reserve0 := "0"
	reserve1 := "0"
	if pool.Reserve0 != nil {
		reserve0 = pool.Reserve0.String()
	}
	if pool.Reserve1 != nil {
		reserve1 = pool.Reserve1.String()
	}

	return &StoredPool{
		Source:            pool.Source.String(),
		Address:           pool.Address.Hex(),
		Token0:            pool.Token0.Hex(),
		Token1:            pool.Token1.Hex(),
		Reserve0:          reserve0,
		Reserve1:          reserve1,
		FeeBps:            pool.FeeBps,
		Stable:            pool.Stable,
		LastRefreshedUnix: pool.LastRefreshedUnix,
	}
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	source, err := sourceFromName(stored.Source)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(stored.Address) {
		return nil, fmt.Errorf("invalid address %q", stored.Address)
	}
	if !common.IsHexAddress(stored.Token0) || !common.IsHexAddress(stored.Token1) {
		return nil, fmt.Errorf("invalid token address on pool %s", stored.Address)
	}

	reserve0, ok := new(big.Int).SetString(stored.Reserve0, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserve0 %q", stored.Reserve0)
	}
	reserve1, ok := new(big.Int).SetString(stored.Reserve1, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserve1 %q", stored.Reserve1)
	}

	return &domain.Pool{
		Source:            source,
		Address:           common.HexToAddress(stored.Address),
		Token0:            common.HexToAddress(stored.Token0),
		Token1:            common.HexToAddress(stored.Token1),
		Reserve0:          reserve0,
		Reserve1:          reserve1,
		FeeBps:            stored.FeeBps,
		Stable:            stored.Stable,
		LastRefreshedUnix: stored.LastRefreshedUnix,
	}, nil
}

func sourceFromName(name string) (domain.Source, error) {
	for s := domain.Source(0); int(s) < domain.NumSources; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", name)
}
