package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

const (
	admitAck    = "Got your admission just fine - thanks!"
	referralAck = "Got your referral just fine - thanks!"
)

// ReferralService backs the upstream admit and refer endpoints.
type ReferralService struct {
	tagging *TaggingService
	log     *zap.Logger
}

func NewReferralService(tagging *TaggingService, log *zap.Logger) *ReferralService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReferralService{tagging: tagging, log: log}
}

// Admit acknowledges an upstream admission. The payload is only logged.
func (s *ReferralService) Admit(_ context.Context, data map[string]any) map[string]any {
	s.log.Info("admission received", zap.Any("payload", data))
	return map[string]any{"ok": admitAck}
}

// Refer tags data["episode"] with data["target"].
func (s *ReferralService) Refer(ctx context.Context, data map[string]any) (map[string]any, error) {
	episodeID, ok := idFrom(data["episode"])
	if !ok {
		return nil, &ValidationError{Fields: []string{"episode"}}
	}
	target, _ := data["target"].(string)
	if target == "" {
		return nil, &ValidationError{Fields: []string{"target"}}
	}

	// Referrals come from other systems, not from a user.
	var upstream *domain.Caller
	if err := s.tagging.AddTag(ctx, upstream, episodeID, target); err != nil {
		s.log.Warn("referral failed", zap.Uint("episode_id", episodeID), zap.String("target", target), zap.Error(err))
		return nil, err
	}
	s.log.Info("referral received", zap.Uint("episode_id", episodeID), zap.String("target", target))
	return map[string]any{"ok": referralAck}, nil
}
