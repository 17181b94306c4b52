package service

import (
	"context"
	"net/http"
	"time"

	"github.com/mmeshcher/boutique-system/internal/promo"
	"go.uber.org/zap"
)

const (
	promoPollInterval = 2 * time.Second
	promoBatchSize    = 10
)

// StartPromoUpdates запускает фоновую оценку промокодов: заказы с
// непроверенным кодом отправляются в промо-систему, подтверждённая скидка
// применяется к заказу. Блокируется до отмены контекста.
func (s *Service) StartPromoUpdates(ctx context.Context) {
	if s.promo == nil {
		s.logger.Info("promo system address not set, promo updates disabled")
		return
	}

	ticker := time.NewTicker(promoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if wait := s.processPromoBatch(ctx); wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
		}
	}
}

// processPromoBatch обрабатывает пачку заказов. Возвращает интервал ожидания,
// если промо-система ограничила частоту запросов.
func (s *Service) processPromoBatch(ctx context.Context) time.Duration {
	orders, err := s.repo.GetOrdersForPromo(ctx, promoBatchSize)
	if err != nil {
		s.logger.Error("get orders for promo evaluation", zap.Error(err))
		return 0
	}

	for _, o := range orders {
		result, statusCode, retryAfter, err := s.promo.GetCodeDiscount(ctx, o.PromoCode, float64(o.SubTotalCents)/100)
		if err != nil {
			s.logger.Error("promo system request",
				zap.Int64("order_id", o.ID),
				zap.String("code", o.PromoCode),
				zap.Error(err))
			continue
		}

		if statusCode == http.StatusTooManyRequests {
			return retryAfter
		}

		// 204: код ещё не известен промо-системе, заказ остаётся в очереди
		if statusCode == http.StatusNoContent || result == nil {
			continue
		}

		var discountCents int64
		if result.Status == promo.StatusValid && result.Discount != nil {
			discountCents = int64(*result.Discount*100 + 0.5)
		}

		if err := s.repo.UpdateOrderPromo(ctx, o.ID, discountCents); err != nil {
			s.logger.Error("apply promo discount",
				zap.Int64("order_id", o.ID),
				zap.Error(err))
			continue
		}

		s.logger.Info("promo code evaluated",
			zap.Int64("order_id", o.ID),
			zap.String("code", o.PromoCode),
			zap.String("status", result.Status),
			zap.Int64("discount", discountCents))
	}

	return 0
}
