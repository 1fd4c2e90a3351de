package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/internal/faults"
)

func TestExtractSiteTextSkipsScriptAndStyle(t *testing.T) {
	page := `<html><head>
<style>body { color: red }</style>
<script>var tracking = "<div>not content</div>";</script>
</head><body>
<h1>Sourdough Bakery</h1>
<p data-note="a > b">Fresh loaves every morning.</p>
<noscript>Enable JavaScript</noscript>
<div>Open daily
</body></html>`

	text := extractSiteText(strings.NewReader(page))

	require.Contains(t, text, "Sourdough Bakery")
	require.Contains(t, text, "Fresh loaves every morning.")
	require.Contains(t, text, "Open daily")
	require.NotContains(t, text, "tracking")
	require.NotContains(t, text, "color: red")
	require.NotContains(t, text, "Enable JavaScript")
}

func TestExtractSiteTextCapRespectsRuneBoundary(t *testing.T) {
	page := "<p>" + strings.Repeat("héllo ", 4000) + "</p>"

	text := extractSiteText(strings.NewReader(page))

	require.LessOrEqual(t, len(text), maxSiteTextBytes)
	require.True(t, utf8.ValidString(text))
}

func TestFetchSiteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h2>Plumbing done right</h2></body></html>`))
	}))
	defer srv.Close()

	text, err := fetchSiteText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Plumbing done right", text)
}

func TestFetchSiteTextRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fetchSiteText(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, faults.KindInternal, faults.KindOf(err))
}
