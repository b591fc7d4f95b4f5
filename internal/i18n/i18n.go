package i18n

import (
	"embed"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/transfer-relay/internal/config"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFiles embed.FS

// Data is passed to message templates.
type Data map[string]any

// Service translates message keys for the languages shipped in messages/.
type Service struct {
	tags       []language.Tag
	localizers map[language.Tag]*i18n.Localizer
	matcher    language.Matcher
}

func New(cfg config.Server) (*Service, error) {
	defaultLanguage := cfg.I18n.DefaultLanguage
	if defaultLanguage == language.Und {
		defaultLanguage = language.English
	}

	bundle := i18n.NewBundle(defaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := messageFiles.ReadDir("messages")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message files")
	}

	for _, entry := range entries {
		if _, err := bundle.LoadMessageFileFS(messageFiles, path.Join("messages", entry.Name())); err != nil {
			return nil, errors.Wrapf(err, "failed to load message file %s", entry.Name())
		}
	}

	// the default language is first so the matcher falls back to it
	tags := []language.Tag{defaultLanguage}
	for _, tag := range bundle.LanguageTags() {
		if tag != defaultLanguage {
			tags = append(tags, tag)
		}
	}

	localizers := make(map[language.Tag]*i18n.Localizer, len(tags))
	for _, tag := range tags {
		localizers[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	return &Service{
		tags:       tags,
		localizers: localizers,
		matcher:    language.NewMatcher(tags),
	}, nil
}

// Translate returns the message for key in lang. Unknown keys are returned as is.
func (s *Service) Translate(key string, lang language.Tag, data ...Data) string {
	localizer, ok := s.localizers[lang]
	if !ok {
		localizer = s.localizers[s.defaultTag()]
	}

	config := &i18n.LocalizeConfig{MessageID: key}
	if len(data) > 0 {
		config.TemplateData = data[0]
	}

	msg, err := localizer.Localize(config)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Str("lang", lang.String()).Msg("Failed to translate message")
		return key
	}

	return msg
}

// ParseAcceptLanguage matches an Accept-Language header against the bundled
// languages.
func (s *Service) ParseAcceptLanguage(header string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return s.defaultTag()
	}

	_, idx, _ := s.matcher.Match(tags...)
	return s.tags[idx]
}

// Tags lists the supported languages, the default first.
func (s *Service) Tags() []language.Tag {
	return append([]language.Tag(nil), s.tags...)
}

func (s *Service) defaultTag() language.Tag {
	return s.tags[0]
}
