package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/i18n"
	"golang.org/x/text/language"
)

func newService(t *testing.T) *i18n.Service {
	t.Helper()

	s, err := i18n.New(config.DefaultServiceConfigFromEnv())
	require.NoError(t, err)

	return s
}

func TestTranslate(t *testing.T) {
	s := newService(t)

	assert.Equal(t, "The signature does not belong to the sender.", s.Translate("status.SignatureInvalid", language.English))
	assert.Equal(t, "签名不属于发送方。", s.Translate("status.SignatureInvalid", language.Chinese))
}

func TestTranslateTemplate(t *testing.T) {
	s := newService(t)

	msg := s.Translate("rpc.connected", language.English, i18n.Data{"BlockNumber": 16})
	assert.Equal(t, "Connected to the blockchain node at block 16.", msg)
}

func TestTranslateFallbacks(t *testing.T) {
	s := newService(t)

	assert.Equal(t, "does.not.exist", s.Translate("does.not.exist", language.English))
	assert.Equal(t, "An address is not valid.", s.Translate("status.InvalidAddress", language.French))
}

func TestParseAcceptLanguage(t *testing.T) {
	s := newService(t)

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.English},
		{"de-DE,de;q=0.9", language.English},
		{"zh-CN,zh;q=0.9,en;q=0.8", language.Chinese},
		{"en-US", language.English},
		{"not a header;;", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ParseAcceptLanguage(tt.header))
		})
	}
}

func TestNewWithoutDefaultLanguage(t *testing.T) {
	s, err := i18n.New(config.Server{})
	require.NoError(t, err)

	assert.Equal(t, language.English, s.Tags()[0])
}
