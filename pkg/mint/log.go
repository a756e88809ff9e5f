package mint

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/internal/metrics"
)

const serviceName = "MintService"

// logService wraps Service with logging and operation metrics
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the mint Service.
// It logs method entry/exit, duration and errors, and feeds the operation
// counters.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) ConfirmItems(ctx context.Context, req *ConfirmRequest) (resp *ConfirmResponse, err error) {
	start := time.Now()

	ls.logger.Info("ConfirmItems started",
		zap.String("service", serviceName),
		zap.String("request_id", req.RequestID),
		zap.String("app_id", req.AppID),
		zap.String("player_id", req.PlayerID),
		zap.String("acc_address", req.AccAddress),
		zap.Int("items", len(req.Items)),
	)

	defer func() {
		observe("confirm_mint", start, err)

		if err != nil {
			ls.logger.Error("ConfirmItems failed",
				zap.String("service", serviceName),
				zap.String("request_id", req.RequestID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("ConfirmItems completed",
				zap.String("service", serviceName),
				zap.String("request_id", req.RequestID),
				zap.String("item_id", resp.ItemID),
				zap.String("service_fee", resp.ServiceFee),
				zap.String("game_fee", resp.GameFee),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.ConfirmItems(ctx, req)
}

func (ls *logService) MintNft(ctx context.Context, req *ExecuteRequest) (resp *ExecuteResponse, err error) {
	start := time.Now()

	ls.logger.Info("MintNft started",
		zap.String("service", serviceName),
		zap.String("request_id", req.RequestID),
		zap.String("app_id", req.AppID),
		zap.String("acc_address", req.AccAddress),
		zap.String("item_id", req.ItemID),
	)

	defer func() {
		observe("mint", start, err)

		if err != nil {
			ls.logger.Error("MintNft failed",
				zap.String("service", serviceName),
				zap.String("request_id", req.RequestID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("MintNft completed",
				zap.String("service", serviceName),
				zap.String("request_id", req.RequestID),
				zap.String("token_id", resp.TokenID),
				zap.String("token_uri", resp.TokenURI),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.MintNft(ctx, req)
}

func (ls *logService) BurnNft(ctx context.Context, req *BurnRequest) (resp *BurnResponse, err error) {
	start := time.Now()

	ls.logger.Info("BurnNft started",
		zap.String("service", serviceName),
		zap.String("request_id", req.RequestID),
		zap.String("app_id", req.AppID),
		zap.String("acc_address", req.AccAddress),
		zap.String("token_id", req.TokenID),
	)

	defer func() {
		observe("burn", start, err)

		if err != nil {
			ls.logger.Error("BurnNft failed",
				zap.String("service", serviceName),
				zap.String("request_id", req.RequestID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("BurnNft completed",
				zap.String("service", serviceName),
				zap.String("request_id", resp.RequestID),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.BurnNft(ctx, req)
}

// observe records the operation counter and duration histogram
func observe(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.Operations.WithLabelValues(operation, result).Inc()
	metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
