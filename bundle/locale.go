package bundle

import (
	"strings"

	"golang.org/x/text/language"
)

// Suffix returns the file name suffix of a bundle for tag, "" for root.
func Suffix(tag language.Tag) string {
	parts := subtags(tag)
	if len(parts) == 0 {
		return ""
	}
	return "_" + strings.Join(parts, "_")
}

// Candidates returns the locales searched for tag, most specific first and
// ending with root: lang_Script_REGION, lang_Script, lang_REGION, lang, root.
func Candidates(tag language.Tag) []language.Tag {
	lang, script, region := components(tag)
	if lang == "" {
		return []language.Tag{language.Und}
	}

	var out []language.Tag
	seen := map[string]bool{}
	add := func(parts ...string) {
		var nonEmpty []string
		for _, p := range parts {
			if p != "" {
				nonEmpty = append(nonEmpty, p)
			}
		}
		id := strings.Join(nonEmpty, "-")
		if seen[id] {
			return
		}
		seen[id] = true
		if t, err := language.Parse(id); err == nil {
			out = append(out, t)
		}
	}

	if script != "" {
		add(lang, script, region)
		add(lang, script)
	}
	add(lang, region)
	add(lang)
	return append(out, language.Und)
}

// components returns the explicitly set language, script and region subtags.
func components(tag language.Tag) (string, string, string) {
	if tag == language.Und {
		return "", "", ""
	}
	var lang, script, region string
	if b, conf := tag.Base(); conf == language.Exact {
		lang = b.String()
	}
	if s, conf := tag.Script(); conf == language.Exact {
		script = s.String()
	}
	if r, conf := tag.Region(); conf == language.Exact {
		region = r.String()
	}
	return lang, script, region
}

func subtags(tag language.Tag) []string {
	lang, script, region := components(tag)
	if lang == "" {
		return nil
	}
	parts := []string{lang}
	if script != "" {
		parts = append(parts, script)
	}
	if region != "" {
		parts = append(parts, region)
	}
	return parts
}
