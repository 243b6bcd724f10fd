package service

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"github.com/user/reelstats/internal/model"
)

const sampleFilmMainHTML = `<html><head>
<meta name="twitter:data2" content="4.13 out of 5">
<script type="application/ld+json">
/* <![CDATA[ */
{"@type":"Movie","name":"Arrival","duration":"PT1H56M","aggregateRating":{"ratingValue":4.1}}
/* ]]> */
</script>
</head><body>
<div id="tab-cast"><div class="cast-list">
<a class="text-slug" href="/actor/amy-adams/">Amy Adams</a>
<a class="text-slug" href="/actor/jeremy-renner/">Jeremy Renner</a>
<a class="text-slug" href="/actor/amy-adams/">Amy Adams</a>
</div></div>
<script>var data = {"image":"https://a.ltrbxd.com/resized/film-poster/2/5/5/4/8/25548-arrival-0-230-0-345-crop.jpg"};</script>
</body></html>`

func TestParseFilmMainPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleFilmMainHTML))
	require.NoError(t, err)

	var enrich model.Enrichment
	ParseFilmMainPage(doc, &enrich)

	// 重复演员去重
	require.Equal(t, []string{"Amy Adams", "Jeremy Renner"}, enrich.Actors)

	require.NotNil(t, enrich.AvgRating)
	require.Equal(t, 4.13, *enrich.AvgRating)

	require.NotNil(t, enrich.Runtime)
	require.Equal(t, 116, *enrich.Runtime)

	// 缩略图地址升级到高分辨率
	require.Contains(t, enrich.PosterURL, "-0-500-0-750-")
}

func TestParseFilmMainPageFallbacks(t *testing.T) {
	html := `<html><body>
<a href="/actor/someone/">Someone</a>
<p class="text-footer">104 mins</p>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	var enrich model.Enrichment
	ParseFilmMainPage(doc, &enrich)

	require.Equal(t, []string{"Someone"}, enrich.Actors)
	require.Nil(t, enrich.AvgRating)
	require.NotNil(t, enrich.Runtime)
	require.Equal(t, 104, *enrich.Runtime)
	require.Empty(t, enrich.PosterURL)
}

func TestParseISODuration(t *testing.T) {
	require.Equal(t, 116, parseISODuration("PT1H56M"))
	require.Equal(t, 90, parseISODuration("PT90M"))
	require.Equal(t, 120, parseISODuration("PT2H"))
	require.Equal(t, 0, parseISODuration("garbage"))
}

const sampleFilmCrewHTML = `<html><body><div id="tab-crew">
<h3>Director</h3>
<div class="text-sluglist"><a class="text-slug" href="/director/denis-villeneuve/">Denis Villeneuve</a></div>
<h3>Assistant Director</h3>
<div class="text-sluglist"><a class="text-slug" href="/x/">Not A Director</a></div>
<h3>Writers</h3>
<div class="text-sluglist"><a class="text-slug" href="/writer/eric-heisserer/">Eric Heisserer</a></div>
<h3>Editor</h3>
<div class="text-sluglist"><a class="text-slug" href="/editor/joe-walker/">Joe Walker</a></div>
<h3>Cinematography</h3>
<div class="text-sluglist"><a class="text-slug" href="/cinematography/bradford-young/">Bradford Young</a></div>
</div></body></html>`

func TestParseFilmCrewPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleFilmCrewHTML))
	require.NoError(t, err)

	var enrich model.Enrichment
	ParseFilmCrewPage(doc, &enrich)

	// 副导演一类的头衔不计入导演
	require.Equal(t, []string{"Denis Villeneuve"}, enrich.Directors)
	require.Equal(t, []string{"Eric Heisserer"}, enrich.Writers)
	require.Equal(t, []string{"Joe Walker"}, enrich.Editors)
	require.Equal(t, []string{"Bradford Young"}, enrich.Cinematographers)
}

const sampleFilmDetailsHTML = `<html><head>
<script type="application/ld+json">{"@type":"Movie","inLanguage":"English"}</script>
</head><body>
<div id="tab-details">
<a href="/studio/paramount/">Paramount</a>
</div>
</body></html>`

func TestParseFilmDetailsPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleFilmDetailsHTML))
	require.NoError(t, err)

	var enrich model.Enrichment
	ParseFilmDetailsPage(doc, &enrich)

	require.Equal(t, "English", enrich.Language)
	require.Equal(t, "Paramount", enrich.Studio)
}

const sampleFilmGenresHTML = `<html><body><div id="tab-genres">
<h3>Genres</h3>
<div class="text-sluglist">
<a href="/films/genre/science-fiction/">Science Fiction</a>
<a href="/films/genre/drama/">Drama</a>
</div>
<h3>Themes</h3>
<div class="text-sluglist"><a href="/films/theme/first-contact/">First contact</a></div>
</div></body></html>`

func TestParseFilmGenresPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleFilmGenresHTML))
	require.NoError(t, err)

	var enrich model.Enrichment
	ParseFilmGenresPage(doc, &enrich)

	// 主题小节不计入类型
	require.Equal(t, []string{"Science Fiction", "Drama"}, enrich.Genres)
}

func TestParseFilmPagesNilDoc(t *testing.T) {
	var enrich model.Enrichment
	ParseFilmMainPage(nil, &enrich)
	ParseFilmCrewPage(nil, &enrich)
	ParseFilmDetailsPage(nil, &enrich)
	ParseFilmGenresPage(nil, &enrich)
	require.Equal(t, model.Enrichment{}, enrich)
}
