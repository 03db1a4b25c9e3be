package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// money travels as plain JSON numbers, matching the backup format
	decimal.MarshalJSONWithoutQuotes = true
}

// metadata keys
const (
	MetaStore      = "bistro_store"
	MetaCategories = "bistro_categories"
	MetaCrates     = "bistro_crates"
	MetaSettings   = "bistro_settings"
)

type Metadata struct {
	Key   string          `gorm:"primaryKey;size:64" json:"key"`
	Value json.RawMessage `json:"value"`
}

type CrateStock struct {
	SobragaEmpties int `json:"sobragaEmpties"`
	SobragaFull    int `json:"sobragaFull"`
}

type StoreInfo struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Location           string `json:"location"`
	TVAEnabled         bool   `json:"tvaEnabled"`
	SubscriptionStatus string `json:"subscriptionStatus"`
	Tier               string `json:"tier"`
	ActivationCode     string `json:"activationCode,omitempty"`
	StaffAccessCode    string `json:"staffAccessCode,omitempty"`
}

type Settings struct {
	BistroName           string          `json:"bistroName"`
	BistroSlogan         string          `json:"bistroSlogan,omitempty"`
	BistroPhone          string          `json:"bistroPhone,omitempty"`
	NIFNumber            string          `json:"nifNumber,omitempty"`
	OwnerName            string          `json:"ownerName"`
	OwnerEmail           string          `json:"ownerEmail"`
	ManagerName          string          `json:"managerName"`
	Location             string          `json:"location"`
	Theme                string          `json:"theme,omitempty"`
	TVARate              decimal.Decimal `json:"tvaRate"`
	LogoURL              string          `json:"logoUrl,omitempty"`
	ReceiptFooterMessage string          `json:"receiptFooterMessage,omitempty"`
	MonthlyRent          decimal.Decimal `json:"monthlyRent"`
	MonthlyDJSalary      decimal.Decimal `json:"monthlyDjSalary"`
	MonthlyManagerSalary decimal.Decimal `json:"monthlyManagerSalary"`
	MonthlyElectricity   decimal.Decimal `json:"monthlyElectricity"`
	MonthlyWater         decimal.Decimal `json:"monthlyWater"`
	AppSubscription      decimal.Decimal `json:"appSubscription"`
	MonthlyWifi          decimal.Decimal `json:"monthlyWifi"`
	MonthlyCanal         decimal.Decimal `json:"monthlyCanal"`
	InstallationDate     int64           `json:"installationDate,omitempty"` // unix millis
}

// MonthlyFixedCharges sums the recurring charges (app subscription excluded).
func (s Settings) MonthlyFixedCharges() decimal.Decimal {
	return decimal.Sum(decimal.Zero,
		s.MonthlyRent, s.MonthlyManagerSalary, s.MonthlyElectricity,
		s.MonthlyWater, s.MonthlyWifi, s.MonthlyCanal, s.MonthlyDJSalary)
}
