package services

import (
	"encoding/json"
	"errors"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
)

// ConfigService stores small json documents like the leader lease or sync cursors in the config table.
type ConfigService struct {
	repository shared.ConfigRepository
}

func NewConfigService(repository shared.ConfigRepository) ConfigService {
	return ConfigService{
		repository: repository,
	}
}

func (service ConfigService) GetJSONConfig(key string, v any) error {
	var config models.Config
	if err := service.repository.GetDB(nil).Where("key = ?", key).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.WithCause(shared.ErrNotFound, err)
		}
		return err
	}

	return json.Unmarshal([]byte(config.Val), v)
}

func (service ConfigService) SetJSONConfig(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	config := models.Config{
		Key: key,
		Val: string(b),
	}

	return service.repository.Save(nil, &config)
}

func (service ConfigService) RemoveConfig(key string) error {
	return service.repository.GetDB(nil).Where("key = ?", key).Delete(&models.Config{}).Error
}
