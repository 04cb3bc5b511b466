package templates

import "golang.org/x/text/language"

// labels holds the fixed UI strings of one language.
type labels struct {
	Search     string
	Apply      string
	Clear      string
	Loading    string
	Showing    string // "%d-%d of %d"
	NoData     string
	NoMatch    string
	Prev       string
	Next       string
	Reload     string
	Download   string
	LastLoaded string
	SortAsc    string
	SortDesc   string
}

var uiLanguages = []language.Tag{
	language.English, // fallback
	language.Portuguese,
}

var uiMatcher = language.NewMatcher(uiLanguages)

var uiLabels = []labels{
	{
		Search:     "Search",
		Apply:      "Filter",
		Clear:      "Clear",
		Loading:    "Loading data...",
		Showing:    "Showing %d-%d of %d",
		NoData:     "No data available.",
		NoMatch:    "No records match the filter.",
		Prev:       "Previous",
		Next:       "Next",
		Reload:     "Reload",
		Download:   "Download",
		LastLoaded: "Last loaded",
		SortAsc:    "sorted ascending",
		SortDesc:   "sorted descending",
	},
	{
		Search:     "Pesquisar",
		Apply:      "Filtrar",
		Clear:      "Limpar",
		Loading:    "Carregando dados...",
		Showing:    "Exibindo %d-%d de %d",
		NoData:     "Nenhum dado disponível.",
		NoMatch:    "Nenhum registro corresponde ao filtro.",
		Prev:       "Anterior",
		Next:       "Próxima",
		Reload:     "Recarregar",
		Download:   "Baixar",
		LastLoaded: "Última carga",
		SortAsc:    "ordem crescente",
		SortDesc:   "ordem decrescente",
	},
}

func labelsFor(tag language.Tag) labels {
	_, i, _ := uiMatcher.Match(tag)
	return uiLabels[i]
}
