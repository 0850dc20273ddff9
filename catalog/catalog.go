// Package catalog installs merged locale resources as the active
// translation source and answers message lookups against it.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/lingua/resource"
)

type contextKey string

func (c contextKey) String() string {
	return "lingua/catalog/" + string(c)
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
	return strings.Split(lang, ",")
}

// Consumer receives an activated locale's merged resources and makes
// them the active translation source.
type Consumer interface {
	Activate(ctx context.Context, locale string, res resource.Resource) error
}

type Manager interface {
	Consumer
	Bundle() *i18n.Bundle
	ActiveLocale() string
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

	mu     sync.Mutex
	active string
}

// NewManager creates a catalog manager whose bundle falls back to the
// supplied default locale.
func NewManager(defaultLocale string) (Manager, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parsing default locale %q: %w", defaultLocale, err)
	}

	return &managerImpl{bundle: i18n.NewBundle(tag)}, nil
}

// Bundle Access the translation bundle instantiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

// ActiveLocale returns the last locale whose resources were activated.
func (s *managerImpl) ActiveLocale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate flattens the merged resource into messages and installs
// them for the locale.
func (s *managerImpl) Activate(ctx context.Context, locale string, res resource.Resource) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parsing locale %q: %w", locale, err)
	}

	messages := flatten(ctx, "", res)
	if len(messages) > 0 {
		if err = s.bundle.AddMessages(tag, messages...); err != nil {
			return fmt.Errorf("installing messages for %q: %w", locale, err)
		}
	}

	s.mu.Lock()
	s.active = locale
	s.mu.Unlock()

	return nil
}

// flatten walks the resource depth first, joining nested keys with
// dots. A nested mapping carrying an "other" key is treated as a set
// of plural forms rather than a branch.
func flatten(ctx context.Context, prefix string, res map[string]any) []*i18n.Message {
	keys := make([]string, 0, len(res))
	for key := range res {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var messages []*i18n.Message
	for _, key := range keys {
		id := key
		if prefix != "" {
			id = prefix + "." + key
		}

		switch value := res[key].(type) {
		case string:
			messages = append(messages, &i18n.Message{ID: id, Other: value})
		case map[string]any:
			if msg, ok := pluralMessage(id, value); ok {
				messages = append(messages, msg)
				continue
			}
			messages = append(messages, flatten(ctx, id, value)...)
		case resource.Resource:
			messages = append(messages, flatten(ctx, id, value)...)
		case nil:
			util.Log(ctx).WithField("messageID", id).Warn("Activate -- dropping nil message value")
		default:
			messages = append(messages, &i18n.Message{ID: id, Other: fmt.Sprintf("%v", value)})
		}
	}

	return messages
}

func pluralMessage(id string, forms map[string]any) (*i18n.Message, bool) {
	if _, ok := forms["other"]; !ok {
		return nil, false
	}

	msg := &i18n.Message{ID: id}
	for form, value := range forms {
		text, ok := value.(string)
		if !ok {
			return nil, false
		}
		switch form {
		case "zero":
			msg.Zero = text
		case "one":
			msg.One = text
		case "two":
			msg.Two = text
		case "few":
			msg.Few = text
		case "many":
			msg.Many = text
		case "other":
			msg.Other = text
		case "description":
			msg.Description = text
		default:
			return nil, false
		}
	}

	return msg, true
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.TranslateWithMapAndCount(ctx, request, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:

		languageSlice = ExtractLanguageFromHTTPRequest(v)

	case context.Context:
		languageSlice = ExtractLanguageFromGrpcRequest(v)

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	case nil:
		languageSlice = FromContext(ctx)

	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("TranslateWithMapAndCount -- no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
		TemplateData:   variables,
		PluralCount:    count,
	})

	if err != nil {
		logger := util.Log(ctx).WithError(err)
		logger.Error(" TranslateWithMapAndCount -- could not perform translation")
	}

	return transVersion
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
	acceptLanguageHeader := req.Get("Accept-Language")
	return strings.Split(acceptLanguageHeader, ",")
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
	acceptLangHeader := header[0]
	return strings.Split(acceptLangHeader, ",")
}
