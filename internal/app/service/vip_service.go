package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

// VIPService mantiene los slots VIP reservados según cuántos VIP hay conectados.
type VIPService struct {
	rcon RconAPI
	cfg  Configs
}

func NewVIPService(rc RconAPI, cfg Configs) *VIPService {
	return &VIPService{rcon: rc, cfg: cfg}
}

// SetRealVIPs corre en cada connect/disconnect; siempre recalcula desde cero.
func (s *VIPService) SetRealVIPs(ctx context.Context, _ domain.LogEvent) error {
	cfg, err := s.cfg.RealVip(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	count, err := s.rcon.GetVIPsCount(ctx)
	if err != nil {
		return fmt.Errorf("get vips count: %w", err)
	}
	slots := cfg.Slots(count)
	if err := s.rcon.SetVIPSlotsNum(ctx, slots); err != nil {
		return fmt.Errorf("set vip slots: %w", err)
	}
	log.Printf("[vip] real VIP set slots to %d (vips online: %d)", slots, count)
	return nil
}
