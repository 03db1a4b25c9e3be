package pos

import (
	"time"

	"bistrogest/internal/auth"
	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
)

// first-run data for an empty store

func defaultProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Regab 65cl", Price: decimal.NewFromInt(600), CostPrice: decimal.NewFromInt(450), Stock: 48, Threshold: 12, HasConsigne: true, Category: "Boisson"},
		{ID: "2", Name: "Castel 65cl", Price: decimal.NewFromInt(700), CostPrice: decimal.NewFromInt(550), Stock: 24, Threshold: 6, HasConsigne: true, Category: "Boisson"},
		{ID: "3", Name: "Coca-Cola 50cl", Price: decimal.NewFromInt(500), CostPrice: decimal.NewFromInt(350), Stock: 36, Threshold: 12, Category: "Boisson"},
	}
}

func defaultStaff(now time.Time) ([]models.StaffMember, error) {
	hash, err := auth.HashAccessCode("2410")
	if err != nil {
		return nil, err
	}
	return []models.StaffMember{{
		ID:         "s1",
		Name:       "Moussa Nguema",
		Username:   "moussa241",
		AccessCode: hash,
		Role:       "Serveur Principal",
		IsActive:   true,
		Performance: models.StaffPerformance{
			Attendance: 5, SalesSkills: 5, ClientSatisfaction: 5, Honesty: 5, LastEvaluation: now,
		},
	}}, nil
}

func defaultCategories() []string {
	return []string{"Boisson", "Nourriture", "Divers"}
}

func defaultStoreInfo(id, activationCode string) models.StoreInfo {
	if id == "" {
		id = "lbv-1"
	}
	return models.StoreInfo{
		ID:                 id,
		Name:               "Bistro Libreville HQ",
		Location:           "Glass, LBV",
		TVAEnabled:         true,
		SubscriptionStatus: "ACTIVE",
		Tier:               "enterprise",
		ActivationCode:     activationCode,
		StaffAccessCode:    "2410",
	}
}

func defaultSettings(info models.StoreInfo, now time.Time) models.Settings {
	return models.Settings{
		BistroName:       info.Name,
		OwnerName:        "Admin",
		ManagerName:      "Gérant",
		Location:         info.Location,
		Theme:            "dark",
		TVARate:          decimal.NewFromInt(18),
		InstallationDate: now.UnixMilli(),
	}
}
