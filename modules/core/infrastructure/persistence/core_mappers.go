package persistence

import (
	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence/models"
)

func ToDomainVillage(dbRow *models.Village) *village.Village {
	return village.Hydrate(
		dbRow.ID,
		dbRow.Code,
		dbRow.Name,
		dbRow.District,
		dbRow.Active,
		dbRow.CreatedAt,
		dbRow.UpdatedAt,
	)
}

func ToDBVillage(entity *village.Village) *models.Village {
	return &models.Village{
		ID:        entity.ID(),
		Code:      entity.Code(),
		Name:      entity.Name(),
		District:  entity.District(),
		Active:    entity.IsActive(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

func ToDomainUser(dbRow *models.User) user.User {
	return user.Hydrate(
		dbRow.ID,
		dbRow.Email,
		dbRow.DisplayName,
		user.Role(dbRow.Role),
		user.UILanguage(dbRow.UILanguage),
		dbRow.CreatedAt,
	)
}
