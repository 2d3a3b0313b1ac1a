package models

type Settings struct {
	AllowRegistration        bool   `json:"allowRegistration"`
	RequireEmailVerification bool   `json:"requireEmailVerification"`
	DefaultLanguage          string `json:"defaultLanguage" validate:"required"`
	SystemNotifications      bool   `json:"systemNotifications"`
}

func DefaultSettings() Settings {
	return Settings{
		AllowRegistration:        true,
		RequireEmailVerification: false,
		DefaultLanguage:          "English",
		SystemNotifications:      true,
	}
}
