package config

import "strings"

// defaultOrigins are trusted without configuration.
var defaultOrigins = []string{
	"https://dofuspourlesnoobs.com",
	"https://www.dofuspourlesnoobs.com",
	"https://huzounet.fr",
	"https://dofusbook.net",
	"https://www.dofusbook.net",
	"https://ganymede-app.com",
	"https://ganymede-dofus.com",
	"https://dofus-portals.fr",
	"https://youtube.com",
	"https://www.youtube.com",
	"https://youtu.be",
	"https://twitter.com",
	"https://x.com",
	"https://dofus.com",
	"https://www.dofus.com",
	"https://www.twitch.tv",
	"https://twitch.tv",
	"https://metamob.fr",
	"https://dofusdb.fr",
	"https://barbofus.com",
	"https://dofensive.com",
	"https://www.dofuskin.com",
	"https://dofuskin.com",
	"https://docs.google.com",
	"https://dofustool.com",
	"https://www.dofustool.com",
	"https://krosmoz.com",
	"https://www.krosmoz.com",
	"https://gamosaurus.com",
	"https://www.gamosaurus.com",
	"https://comteharebourg.com",
	"https://www.comteharebourg.com",
	"https://d-bk.net",
}

// DefaultOrigins returns a copy of the built-in trusted origins.
func DefaultOrigins() []string {
	return append([]string(nil), defaultOrigins...)
}

func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/")
}
