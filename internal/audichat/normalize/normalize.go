// Package normalize prepares raw question text for classification and
// pattern dispatch: lower-casing, whitespace and punctuation cleanup,
// and a fixed list of domain-term corrections so the catalogs only ever
// see canonical spellings.
package normalize

import (
	"regexp"
	"strings"
)

// correction rewrites one known misspelling or synonym family into its
// canonical form. Order matters: column-name corrections run after the
// generic singular/plural collapses.
type correction struct {
	re   *regexp.Regexp
	repl string
}

var (
	punctRuns   = regexp.MustCompile(`[?!.,;:]{2,}`)
	spaceRuns   = regexp.MustCompile(`\s+`)
	corrections = []correction{
		// common misspellings and plural variants
		{regexp.MustCompile(`utilisateu[rs]\w*`), "utilisateur"},
		{regexp.MustCompile(`analys[es]\w*`), "analyse"},
		{regexp.MustCompile(`objets?\b`), "objet"},
		{regexp.MustCompile(`aujoud'hui`), "aujourd'hui"},
		// canonical audit column identifiers
		{regexp.MustCompile(`db[_ ]?username`), "dbusername"},
		{regexp.MustCompile(`os[_ ]username`), "os_username"},
		{regexp.MustCompile(`object[_ ]?name`), "object_name"},
		{regexp.MustCompile(`object[_ ]?schema`), "object_schema"},
		{regexp.MustCompile(`client[_ ]?program(_name)?`), "client_program_name"},
	}
)

// Question normalizes a raw question string. It never fails; an empty
// input yields an empty output.
func Question(raw string) string {
	q := strings.ToLower(raw)
	q = strings.TrimSpace(q)
	q = punctRuns.ReplaceAllString(q, "")
	q = spaceRuns.ReplaceAllString(q, " ")
	for _, c := range corrections {
		q = c.re.ReplaceAllString(q, c.repl)
	}
	return q
}
