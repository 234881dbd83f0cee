package subs

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultCacheLimit      = 10
	DefaultExpireInMinutes = 5
)

var ErrInvalidConfig = errors.New("invalid config")

// Config bounds the cache. Zero disables the corresponding rule.
type Config struct {
	// maximum number of cached requests
	CacheLimit int `yaml:"cache_limit"`
	// minutes an entry may go unrequested before it is dropped
	ExpireInMinutes int `yaml:"expire_in_minutes"`
}

func DefaultConfig() Config {
	return Config{
		CacheLimit:      DefaultCacheLimit,
		ExpireInMinutes: DefaultExpireInMinutes,
	}
}

func (c Config) Validate() error {
	if c.CacheLimit < 0 {
		return fmt.Errorf("%w: cache_limit %d is negative", ErrInvalidConfig, c.CacheLimit)
	}
	if c.ExpireInMinutes < 0 {
		return fmt.Errorf("%w: expire_in_minutes %d is negative", ErrInvalidConfig, c.ExpireInMinutes)
	}
	return nil
}

func (c Config) ExpireIn() time.Duration {
	return time.Duration(c.ExpireInMinutes) * time.Minute
}
