package models

// SiteSettingsID is the primary key of the single settings row.
const SiteSettingsID = "site"

// SiteSettingsModel holds the deployment wide site name and logo.
type SiteSettingsModel struct {
	Base
	SiteName string  `json:"site_name" gorm:"not null"`
	LogoURL  *string `json:"logo_url"  gorm:"type:text"`
}

func (SiteSettingsModel) TableName() string { return "site_settings" }
