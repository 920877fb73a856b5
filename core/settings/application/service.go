package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AzielCF/az-postr/core/settings/domain"
	"github.com/AzielCF/az-postr/core/settings/infrastructure"
	"gorm.io/gorm"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewGlobalSettingsGormRepository(db),
	}
}

// DynamicSettings are operator overrides persisted in the database. A nil
// pointer or empty value means "no override, use the environment default".
type DynamicSettings struct {
	ReplyHint         string
	AutoResponse      *bool
	MaxRepliesPerUser *int
	Topics            []string
}

func (s *SettingsService) GetDynamicSettings(ctx context.Context) (*DynamicSettings, error) {
	if err := s.repo.InitSchema(ctx); err != nil {
		return nil, err
	}

	ds := &DynamicSettings{}

	if val, _ := s.repo.Get(ctx, domain.KeyReplyHint); val != "" {
		ds.ReplyHint = val
	}
	if val, _ := s.repo.Get(ctx, domain.KeyAutoResponse); val != "" {
		vLower := strings.ToLower(val)
		isOn := vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
		ds.AutoResponse = &isOn
	}
	if val, _ := s.repo.Get(ctx, domain.KeyMaxRepliesPerUser); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			ds.MaxRepliesPerUser = &n
		}
	}
	if val, _ := s.repo.Get(ctx, domain.KeyTopics); val != "" {
		for _, t := range strings.Split(val, ",") {
			if t = strings.TrimSpace(t); t != "" {
				ds.Topics = append(ds.Topics, t)
			}
		}
	}
	return ds, nil
}

func (s *SettingsService) SetReplyHint(ctx context.Context, v string) error {
	return s.repo.Set(ctx, domain.KeyReplyHint, strings.TrimSpace(v))
}

func (s *SettingsService) SetAutoResponse(ctx context.Context, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return s.repo.Set(ctx, domain.KeyAutoResponse, val)
}

func (s *SettingsService) SetMaxRepliesPerUser(ctx context.Context, v int) error {
	if v < 1 {
		v = 1
	}
	return s.repo.Set(ctx, domain.KeyMaxRepliesPerUser, fmt.Sprintf("%d", v))
}

func (s *SettingsService) SetTopics(ctx context.Context, topics []string) error {
	cleaned := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return s.repo.Set(ctx, domain.KeyTopics, strings.Join(cleaned, ","))
}
