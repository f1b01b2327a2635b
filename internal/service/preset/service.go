package preset

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type ListResult struct {
	Items []model.RulePreset
	Total int64
}

// MutationParams describes a preset. Settings holds overrides applied on top
// of the defaults for Mode.
type MutationParams struct {
	Name     string
	Mode     mahjong.Mode
	Settings []byte
	Status   string
}

func (s *Service) List(ctx context.Context, page, size int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.RulePreset{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.RulePreset
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.RulePreset{}).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (s *Service) Create(ctx context.Context, params MutationParams) (*model.RulePreset, error) {
	name, settings, err := normalize(params)
	if err != nil {
		return nil, err
	}
	preset := model.RulePreset{
		Name:         name,
		Mode:         string(settings.Mode),
		SettingsJSON: settings.json,
		Status:       normalizeStatus(params.Status),
	}
	if err := s.db.WithContext(ctx).Create(&preset).Error; err != nil {
		return nil, err
	}
	return &preset, nil
}

func (s *Service) Update(ctx context.Context, id int64, params MutationParams) (*model.RulePreset, error) {
	name, settings, err := normalize(params)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":     name,
		"mode":     string(settings.Mode),
		"settings": settings.json,
		"status":   normalizeStatus(params.Status),
	}

	result := s.db.WithContext(ctx).
		Model(&model.RulePreset{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrPresetNotFound
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.RulePreset, error) {
	var preset model.RulePreset
	if err := s.db.WithContext(ctx).First(&preset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrPresetNotFound
		}
		logger.Log.Error("failed to load rule preset", zap.Int64("presetID", id), zap.Error(err))
		return nil, err
	}
	return &preset, nil
}

// Settings resolves an enabled preset to the rules a room is created with.
func (s *Service) Settings(ctx context.Context, id int64) (mahjong.Settings, error) {
	preset, err := s.Get(ctx, id)
	if err != nil {
		return mahjong.Settings{}, err
	}
	if preset.Status == StatusDisabled {
		return mahjong.Settings{}, appErr.ErrPresetNotFound
	}
	return mahjong.ParseSettings(mahjong.Mode(preset.Mode), preset.SettingsJSON)
}

type normalized struct {
	mahjong.Settings
	json datatypes.JSON
}

func normalize(params MutationParams) (string, normalized, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return "", normalized{}, appErr.ErrInvalidName
	}
	settings, err := mahjong.ParseSettings(params.Mode, params.Settings)
	if err != nil {
		return "", normalized{}, err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return "", normalized{}, err
	}
	return name, normalized{Settings: settings, json: datatypes.JSON(raw)}, nil
}

func normalizeStatus(status string) string {
	if strings.ToLower(strings.TrimSpace(status)) == StatusDisabled {
		return StatusDisabled
	}
	return StatusEnabled
}
