package nasa

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	EyesBaseURL    = "https://eyes.nasa.gov/apps/exo/#/"
	JupyterLiteURL = "https://jupyterlite.readthedocs.io/en/stable/_static/lab/index.html"
)

// Eyes on Exoplanets spacecraft identifiers by mission name.
var eyesSpacecraft = map[string]string{
	"TESS":    "sc_tess",
	"JWST":    "sc_jwst",
	"Kepler":  "sc_kepler_space_telescope",
	"Spitzer": "sc_spitzer",
	"Hubble":  "sc_hubble_space_telescope",
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	numberLetterRe = regexp.MustCompile(`(?i)(\d+)([a-z])`)
)

// FormatEyesName converts an archive planet name into the identifier used
// by Eyes on Exoplanets, e.g. "Kepler-452 b" becomes "Kepler-452_b".
func FormatEyesName(name string) string {
	name = strings.TrimSpace(name)

	switch {
	case strings.Contains(name, "HD "):
		return whitespaceRe.ReplaceAllString(name, "_")
	case strings.Contains(name, "Kepler"), strings.Contains(name, "TRAPPIST"), strings.Contains(name, "K2-"):
		compact := whitespaceRe.ReplaceAllString(name, "")
		loc := numberLetterRe.FindStringSubmatchIndex(compact)
		if loc == nil {
			return compact
		}
		// only the first number/letter boundary is split
		return compact[:loc[3]] + "_" + compact[loc[4]:]
	default:
		return whitespaceRe.ReplaceAllString(name, "_")
	}
}

// EyesPlanetURL links to the planet view.
func EyesPlanetURL(name string) string {
	return EyesBaseURL + "planet/" + url.PathEscape(FormatEyesName(name))
}

// EyesSystemURL links to the system view of host.
func EyesSystemURL(host string) string {
	return EyesBaseURL + "system/" + url.PathEscape(strings.TrimSpace(host))
}

// EyesStarURL links to the star view of host.
func EyesStarURL(host string) string {
	return EyesBaseURL + "star/" + url.PathEscape(strings.TrimSpace(host))
}

// EyesSpacecraftURL links to a mission spacecraft. Unknown missions
// return false.
func EyesSpacecraftURL(mission string) (string, bool) {
	id, ok := eyesSpacecraft[mission]
	if !ok {
		return "", false
	}
	return EyesBaseURL + "spacecraft/" + id, true
}

// EyesLinks bundles the links shown next to an archive lookup.
type EyesLinks struct {
	Planet string `json:"planet"`
	System string `json:"system,omitempty"`
	Star   string `json:"star,omitempty"`
}

func LinksFor(name, host string) EyesLinks {
	links := EyesLinks{Planet: EyesPlanetURL(name)}
	if strings.TrimSpace(host) != "" {
		links.System = EyesSystemURL(host)
		links.Star = EyesStarURL(host)
	}
	return links
}
