package controllers

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	"github.com/villagepulse/villagepulse/pkg/constants"
	"github.com/villagepulse/villagepulse/pkg/intl"
	"github.com/villagepulse/villagepulse/pkg/serrors"
)

type VillageCreateDTO struct {
	Code     string `json:"code" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	District string `json:"district" validate:"max=255"`
}

type VillageUpdateDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	District string `json:"district" validate:"max=255"`
	Active   *bool  `json:"active"`
}

func villageFieldLocaleKey(field string) string {
	return "Villages.Fields." + field
}

func validateDTO(ctx context.Context, dto any, localeKey func(string) string) (map[string]string, bool) {
	err := constants.Validate.Struct(dto)
	if err == nil {
		return nil, true
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}, false
	}
	localizer, _ := intl.UseLocalizer(ctx)
	return serrors.LocalizeValidationErrors(serrors.ProcessValidatorErrors(errs, localeKey), localizer), false
}

func (d *VillageCreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateDTO(ctx, d, villageFieldLocaleKey)
}

func (d *VillageCreateDTO) ToEntity() (*village.Village, error) {
	return village.New(d.Code, d.Name, d.District)
}

func (d *VillageUpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateDTO(ctx, d, villageFieldLocaleKey)
}

type UserCreateDTO struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
	Role        string `json:"role" validate:"required,oneof=admin staff"`
}

func userFieldLocaleKey(field string) string {
	return "Users.Fields." + field
}

func (d *UserCreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateDTO(ctx, d, userFieldLocaleKey)
}

func (d *UserCreateDTO) ToEntity() user.User {
	return user.New(d.Email, d.DisplayName, user.Role(d.Role))
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:          u.ID().String(),
		Email:       u.Email(),
		DisplayName: u.DisplayName(),
		Role:        string(u.Role()),
	}
}

type villageResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	District string `json:"district,omitempty"`
	Active   bool   `json:"active"`
}

func toVillageResponse(v *village.Village) villageResponse {
	return villageResponse{
		ID:       v.ID().String(),
		Code:     v.Code(),
		Name:     v.Name(),
		District: v.District(),
		Active:   v.IsActive(),
	}
}
