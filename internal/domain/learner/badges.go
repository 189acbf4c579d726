package learner

// BadgeColor is the accent color of the badge toast.
type BadgeColor string

const (
	ColorCyan    BadgeColor = "cyan"
	ColorMagenta BadgeColor = "magenta"
	ColorYellow  BadgeColor = "yellow"
)

// Badge IDs.
const (
	BadgeFirstStep     = "first_step"
	BadgeSeason1Master = "season_1_master"
	BadgeAITalker      = "ai_talker"
	BadgeDataExplorer  = "data_explorer"
	BadgeEthicsHero    = "ethics_hero"
)

// Badge is a static badge definition.
type Badge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
	Color       BadgeColor `json:"color"`
}

// badges is the fixed badge catalog, in display order.
var badges = []Badge{
	{ID: BadgeFirstStep, Title: "Primeiro Passo", Icon: "🚀", Description: "Completou seu primeiro módulo de IA!", Color: ColorCyan},
	{ID: BadgeSeason1Master, Title: "Mestre da Temporada 1", Icon: "🤖", Description: "Dominou todos os conceitos iniciais da Temporada 1.", Color: ColorMagenta},
	{ID: BadgeAITalker, Title: "Conversador de IA", Icon: "💬", Description: "Interagiu com o tutor Neo no laboratório.", Color: ColorYellow},
	{ID: BadgeDataExplorer, Title: "Explorador de Dados", Icon: "📊", Description: "Completou 5 módulos de Big Data.", Color: ColorCyan},
	{ID: BadgeEthicsHero, Title: "Herói da Ética", Icon: "⚖️", Description: "Finalizou a trilha de Ética em Silício.", Color: ColorMagenta},
}

// Badges returns all badge definitions in display order.
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// BadgeByID looks up a badge definition.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
