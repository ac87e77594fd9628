// Package localization bridges property bundles to go-i18n. A Manager loads
// the files of a bundle family from a module into an *i18n.Bundle and
// translates message ids for the languages a request asks for.
package localization

import (
	"context"
	"net/http"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"
	"gopkg.in/yaml.v3"
)

type contextKey string

func (c contextKey) String() string {
	return "resources/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

func ToMap(m map[string]string, lang []string) map[string]string {
	m["lang"] = strings.Join(lang, ",")
	return m
}

func FromMap(m map[string]string) []string {
	lang, ok := m["lang"]
	if !ok {
		return nil
	}
	return splitLanguages(lang)
}

// Manager translates message ids loaded from property bundles and message files.
type Manager interface {
	Bundle() *i18n.Bundle
	// Languages returns the languages messages were loaded for, the default
	// language first.
	Languages() []language.Tag
	Translate(ctx context.Context, request any, messageID string) string
	TranslateWithMap(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
	) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// Bundle Access the translation bundle instatiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

func (s *managerImpl) Languages() []language.Tag {
	return s.bundle.LanguageTags()
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.translate(ctx, request, messageID, nil, nil)
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.translate(ctx, request, messageID, variables, nil)
}

// TranslateWithMapAndCount performs a translation with variables based on the
// supplied message id and pluralizes by count. The count is available to the
// message template as PluralCount unless variables set it.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	data := make(map[string]any, len(variables)+1)
	for k, v := range variables {
		data[k] = v
	}
	if _, ok := data["PluralCount"]; !ok {
		data["PluralCount"] = count
	}
	return s.translate(ctx, request, messageID, data, count)
}

func (s *managerImpl) translate(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count any,
) string {
	languageSlice, ok := RequestLanguages(ctx, request)
	if !ok {
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("translate -- no valid request object found, use string, []string, language.Tag, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.bundle, languageSlice...)

	config := &i18n.LocalizeConfig{
		MessageID:   messageID,
		PluralCount: count,
	}
	if variables != nil {
		config.TemplateData = variables
	}

	translation, err := localizer.Localize(config)
	if err != nil {
		logger := util.Log(ctx).WithError(err).WithField("messageID", messageID).WithField("languages", languageSlice)
		if translation == "" {
			logger.Warn("translate -- could not perform translation")
			return messageID
		}
		logger.Debug("translate -- fell back to the default language")
	}

	return translation
}

// RequestLanguages returns the languages requested by request, which may be a
// *http.Request, a context carrying languages or incoming gRPC metadata, a
// string, a []string or a language.Tag. Empty values defer to the languages
// stored in ctx. ok is false for unsupported request types.
func RequestLanguages(ctx context.Context, request any) ([]string, bool) {
	var languageSlice []string

	switch v := request.(type) {
	case nil:
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)
	case context.Context:
		languageSlice = FromContext(v)
		if len(languageSlice) == 0 {
			languageSlice = ExtractLanguageFromGrpcRequest(v)
		}
	case string:
		languageSlice = splitLanguages(v)
	case []string:
		languageSlice = v
	case language.Tag:
		languageSlice = []string{v.String()}
	default:
		return nil, false
	}

	if len(languageSlice) == 0 {
		languageSlice = FromContext(ctx)
	}
	return languageSlice, true
}

// Match returns the tag of supported that best serves the requested
// languages, the first supported tag when nothing matches.
func Match(langs []string, supported ...language.Tag) language.Tag {
	if len(supported) == 0 {
		return language.Und
	}
	matcher := language.NewMatcher(supported)
	_, idx := language.MatchStrings(matcher, langs...)
	return supported[idx]
}

func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.FormValue("lang")

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

func ExtractLanguageFromHTTPHeader(req http.Header) []string {
	return splitLanguages(req.Get("Accept-Language"))
}

func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return []string{}
	}

	header, ok := md["accept-language"]
	if !ok || len(header) == 0 {
		return []string{}
	}
	return splitLanguages(header[0])
}

func splitLanguages(header string) []string {
	var languages []string
	for part := range strings.SplitSeq(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			languages = append(languages, part)
		}
	}
	return languages
}

func newBundle(defaultLanguage language.Tag) *i18n.Bundle {
	bundle := i18n.NewBundle(defaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)
	return bundle
}
