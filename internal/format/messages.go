// ABOUTME: Localized user-facing strings for English and Russian
// ABOUTME: Lookup falls back to English for unknown locales

package format

import "strings"

// Messages is every user-facing string the bot emits.
type Messages struct {
	MenuTitle string

	// Button labels
	ButtonSearch    string
	ButtonRandom    string
	ButtonCompare   string
	ButtonExamples  string
	ButtonHistory   string
	ButtonFavorites string
	ButtonHelp      string
	ButtonBack      string
	ButtonMenu      string
	ButtonPubChem   string
	ButtonSimilar   string
	ButtonSave      string
	ButtonRemove    string

	PromptSearch        string
	PromptFirstCompare  string
	PromptSecondCompare string
	RetryNotFound       string
	RetryUnavailable    string

	NotFound       string // %s is the term
	RandomFailed   string
	Unavailable    string
	HistoryTitle   string
	HistoryEmpty   string
	FavoritesTitle string
	FavoritesEmpty string
	ExamplesTitle  string
	CategoryTitle  string // %s is the category title
	SimilarTitle   string
	SimilarEmpty   string
	SimilarItem    string // %d is the 1-based position
	Saved          string // %s is the name
	Removed        string // %s is the name
	NotInFavorites string
	Help           string

	// Compound card and comparison
	FieldCID        string
	FieldFormula    string
	FieldWeight     string
	FieldIUPAC      string
	FieldSMILES     string
	FieldInChIKey   string
	CompareTitle    string
	WeightDiff      string
	UnknownQuantity string
}

var english = Messages{
	MenuTitle: "👨‍🔬 **Chemistry bot**\n\nChoose an action:",

	ButtonSearch:    "🔍 Search compound",
	ButtonRandom:    "🎲 Random compound",
	ButtonCompare:   "⚖️ Compare compounds",
	ButtonExamples:  "📚 Example compounds",
	ButtonHistory:   "📋 Search history",
	ButtonFavorites: "⭐ Favorites",
	ButtonHelp:      "ℹ️ Help",
	ButtonBack:      "↩️ Back",
	ButtonMenu:      "↩️ Menu",
	ButtonPubChem:   "📊 PubChem",
	ButtonSimilar:   "🧪 Similar",
	ButtonSave:      "💾 Save",
	ButtonRemove:    "❌",

	PromptSearch:        "🔍 Enter a compound name or CID:",
	PromptFirstCompare:  "⚖️ Enter the name or CID of the first compound:",
	PromptSecondCompare: "Now enter the second compound:",
	RetryNotFound:       "Compound not found. Try again:",
	RetryUnavailable:    "The compound service is not responding. Try again:",

	NotFound:       "Could not find compound '%s'.",
	RandomFailed:   "Could not fetch a random compound.",
	Unavailable:    "The compound service is unavailable right now. Please try again later.",
	HistoryTitle:   "🔍 Search history:",
	HistoryEmpty:   "Search history is empty.",
	FavoritesTitle: "⭐ Favorite compounds:",
	FavoritesEmpty: "You have no saved compounds.",
	ExamplesTitle:  "📚 Example compounds:",
	CategoryTitle:  "🔬 %s:",
	SimilarTitle:   "🧪 Similar compounds:",
	SimilarEmpty:   "No similar compounds found.",
	SimilarItem:    "Compound %d",
	Saved:          "Saved: %s",
	Removed:        "Removed: %s",
	NotInFavorites: "Not in favorites.",
	Help: "🆘 **Help**\n\n" +
		"This bot looks up chemical compounds in the PubChem database.\n\n" +
		"🔹 **Features:**\n" +
		"- Search by name or CID\n" +
		"- Random compounds\n" +
		"- Compare two compounds\n" +
		"- Search history and favorites\n\n" +
		"Use the menu buttons to navigate.",

	FieldCID:        "CID",
	FieldFormula:    "Formula",
	FieldWeight:     "Weight",
	FieldIUPAC:      "IUPAC",
	FieldSMILES:     "SMILES",
	FieldInChIKey:   "InChIKey",
	CompareTitle:    "⚖️ **Compound comparison**",
	WeightDiff:      "📊 Weight difference",
	UnknownQuantity: "unknown",
}

var russian = Messages{
	MenuTitle: "👨‍🔬 **Химический бот**\n\nВыберите действие:",

	ButtonSearch:    "🔍 Поиск молекулы",
	ButtonRandom:    "🎲 Случайная молекула",
	ButtonCompare:   "⚖️ Сравнить молекулы",
	ButtonExamples:  "📚 Примеры молекул",
	ButtonHistory:   "📋 История поиска",
	ButtonFavorites: "⭐ Избранное",
	ButtonHelp:      "ℹ️ Помощь",
	ButtonBack:      "↩️ Назад",
	ButtonMenu:      "↩️ Меню",
	ButtonPubChem:   "📊 PubChem",
	ButtonSimilar:   "🧪 Похожие",
	ButtonSave:      "💾 Сохранить",
	ButtonRemove:    "❌",

	PromptSearch:        "🔍 Введите название молекулы или её CID:",
	PromptFirstCompare:  "⚖️ Введите название или CID первой молекулы:",
	PromptSecondCompare: "Теперь введите вторую молекулу:",
	RetryNotFound:       "Молекула не найдена. Попробуйте снова:",
	RetryUnavailable:    "Сервис PubChem не отвечает. Попробуйте снова:",

	NotFound:       "Не удалось найти молекулу '%s'.",
	RandomFailed:   "Не удалось получить случайную молекулу.",
	Unavailable:    "Сервис PubChem сейчас недоступен. Попробуйте позже.",
	HistoryTitle:   "🔍 История поиска:",
	HistoryEmpty:   "История поиска пуста.",
	FavoritesTitle: "⭐ Избранные молекулы:",
	FavoritesEmpty: "У вас нет сохранённых молекул.",
	ExamplesTitle:  "📚 Примеры молекул:",
	CategoryTitle:  "🔬 %s:",
	SimilarTitle:   "🧪 Похожие молекулы:",
	SimilarEmpty:   "Похожие молекулы не найдены.",
	SimilarItem:    "Молекула %d",
	Saved:          "Сохранено: %s",
	Removed:        "Удалено: %s",
	NotInFavorites: "Этой молекулы нет в избранном.",
	Help: "🆘 **Помощь**\n\n" +
		"Этот бот помогает искать информацию о химических соединениях в базе PubChem.\n\n" +
		"🔹 **Основные функции:**\n" +
		"- Поиск по названию или CID\n" +
		"- Просмотр случайных молекул\n" +
		"- Сравнение свойств молекул\n" +
		"- История поиска и избранное\n\n" +
		"Используйте кнопки меню для навигации.",

	FieldCID:        "CID",
	FieldFormula:    "Формула",
	FieldWeight:     "Масса",
	FieldIUPAC:      "IUPAC",
	FieldSMILES:     "SMILES",
	FieldInChIKey:   "InChIKey",
	CompareTitle:    "⚖️ **Сравнение молекул**",
	WeightDiff:      "📊 Разница масс",
	UnknownQuantity: "неизвестно",
}

// Locales lists the supported locale codes.
var Locales = []string{"en", "ru"}

// Lookup returns the messages for locale, defaulting to English.
func Lookup(locale string) Messages {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "ru":
		return russian
	default:
		return english
	}
}
