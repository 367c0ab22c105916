package scraper

import "strings"

const footballURL = "https://www.forebet.com/en/football-tips-and-predictions-for-today"

var sportURLs = map[string]string{
	"football":   footballURL,
	"soccer":     footballURL,
	"basketball": "https://www.forebet.com/en/basketball/predictions-today",
	"tennis":     "https://www.forebet.com/en/tennis/predictions-today",
	"volleyball": "https://www.forebet.com/en/volleyball/predictions-today",
	"handball":   "https://www.forebet.com/en/handball/predictions-today",
	"hockey":     "https://www.forebet.com/en/hockey/predictions-today",
	"ice-hockey": "https://www.forebet.com/en/hockey/predictions-today",
}

// ResolveSportURL maps a sport name (case-insensitive) to today's
// predictions page. Unknown names fall back to football.
func ResolveSportURL(sport string) string {
	if u, ok := sportURLs[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return u
	}
	return footballURL
}

// Sports lists the recognised sport identifiers.
func Sports() []string {
	return []string{"football", "soccer", "basketball", "tennis", "volleyball", "handball", "hockey", "ice-hockey"}
}
