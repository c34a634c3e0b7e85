package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor(t *testing.T) {
	p := Supervisor([]string{"search", "web_scraper", domain.Done})

	assert.Contains(t, p, "following workers: search, web_scraper.")
	assert.Contains(t, p, "respond with FINISH.")
}

func TestTranscript(t *testing.T) {
	log := domain.NewLog("research agents")
	log.Append(domain.NewMessage("search", "found three papers", domain.KindOrdinary))

	assert.Equal(t, "user: research agents\n\nsearch: found three papers", Transcript(log.Snapshot()))
}

func TestDecodeJSON(t *testing.T) {
	type route struct {
		Next string `json:"next"`
	}
	accepted := map[string]string{
		"bare object":   `{"next": "search"}`,
		"padded":        "\n  {\"next\": \"search\"}  \n",
		"json fence":    "```json\n{\"next\": \"search\"}\n```",
		"plain fence":   "```\n{\"next\": \"search\"}\n```",
		"one-line code": "```{\"next\": \"search\"}```",
	}
	for name, text := range accepted {
		t.Run(name, func(t *testing.T) {
			var out route
			require.NoError(t, DecodeJSON(text, &out))
			assert.Equal(t, "search", out.Next)
		})
	}

	rejected := map[string]string{
		"bare name":      "search",
		"prose before":   "Sure!\n{\"next\": \"search\"}",
		"prose after":    "{\"next\": \"search\"} is my answer",
		"fence in prose": "Sure!\n```json\n{\"next\": \"search\"}\n```",
		"unquoted keys":  "{next: search}",
	}
	for name, text := range rejected {
		t.Run(name, func(t *testing.T) {
			var out route
			assert.Error(t, DecodeJSON(text, &out))
		})
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 79) + "é tail"

	got := truncate(s, 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 79)+"...", got)

	assert.Equal(t, "short", truncate("short", 80))
}
