package service

import (
	"golang-backtest-analytics/config"
	"golang-backtest-analytics/pkg/cache"
	"golang-backtest-analytics/pkg/logger"
)

type Service struct {
	MetricsService    MetricsService
	TradeAuditService TradeAuditService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	pendingStore := cache.NewCache(cache.NoExpiration, cfg.Audit.CacheCleanupInterval)
	return &Service{
		MetricsService:    NewMetricsService(cfg, log),
		TradeAuditService: NewTradeAuditService(cfg, log, pendingStore),
	}
}
