package web

import (
	"errors"
	"gravatarlib/internal/models"

	"gorm.io/gorm"
)

func (app *App) getPreset(name string) (*models.Preset, error) {
	var p models.Preset

	err := app.DB.Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (app *App) listPresets() ([]models.Preset, error) {
	var presets []models.Preset
	err := app.DB.Order("name").Find(&presets).Error
	return presets, err
}

func (app *App) savePreset(p *models.Preset) error {
	return app.DB.Save(p).Error
}

// deletePreset reports whether a row was removed.
func (app *App) deletePreset(name string) (bool, error) {
	res := app.DB.Where("name = ?", name).Delete(&models.Preset{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (app *App) pingDB() error {
	sqlDB, err := app.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
