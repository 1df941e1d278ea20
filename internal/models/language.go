package models

// Language is a selectable input language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultLanguage is used when no language is chosen.
const DefaultLanguage = "en"

// Languages is the fixed list offered by the analysis form.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi (हिंदी)"},
	{Code: "es", Name: "Spanish (Español)"},
	{Code: "fr", Name: "French (Français)"},
	{Code: "de", Name: "German (Deutsch)"},
	{Code: "zh", Name: "Chinese (中文)"},
	{Code: "ja", Name: "Japanese (日本語)"},
	{Code: "ar", Name: "Arabic (العربية)"},
	{Code: "bn", Name: "Bengali (বাংলা)"},
	{Code: "ta", Name: "Tamil (தமிழ்)"},
	{Code: "te", Name: "Telugu (తెలుగు)"},
	{Code: "mr", Name: "Marathi (मराठी)"},
}

// IsSupportedLanguage reports whether code is in Languages.
func IsSupportedLanguage(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageName returns the display name for code, or code itself when unknown.
func LanguageName(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// ExampleTexts are sample passages users can load into the form.
var ExampleTexts = []string{
	"The Ramayana is an ancient Indian epic that tells the story of Prince Rama's quest to rescue his wife Sita from the demon king Ravana.",
	"Haiku is a traditional form of Japanese poetry consisting of three lines with a 5-7-5 syllable pattern, often focusing on nature and seasons.",
	"The Renaissance was a period of cultural rebirth in Europe, marked by renewed interest in classical art, literature, and learning.",
}
