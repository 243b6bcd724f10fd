package service

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const sampleDiaryHTML = `<html><body><table>
<tr>
  <td class="td-day"><a class="daydate" href="/someone/diary/films/for/2024/01/05/">5</a></td>
  <td><div data-film-id="51568" data-item-name="Arrival (2016)" data-item-link="/film/arrival-2016/"></div></td>
  <td class="td-rating"><span class="rating rated-9">★★★★½</span></td>
  <td class="td-rewatch icon-status-off"></td>
</tr>
<tr>
  <td class="td-day"><a class="daydate" href="/someone/diary/films/for/2024/02/14/">14</a></td>
  <td><div data-film-id="77301" data-item-name="Her (2013)" data-item-slug="her"></div></td>
  <td class="td-rating"><span class="rating">★★★★</span></td>
  <td class="td-rewatch icon-status-off"></td>
</tr>
<tr>
  <td class="td-day"><a class="daydate" href="/someone/diary/films/for/2024/03/10/">10</a></td>
  <td><div data-film-id="51568" data-item-name="Arrival (2016)" data-item-link="/film/arrival-2016/"></div></td>
  <td class="td-rating"><span class="rating rated-10">★★★★★</span></td>
  <td class="td-rewatch"></td>
</tr>
<tr>
  <td class="td-day"><a class="daydate" href="/someone/diary/">broken</a></td>
  <td><div data-film-id="404" data-item-name="Lost Entry (1999)"></div></td>
  <td class="td-rating"><span class="rating"></span></td>
  <td class="td-rewatch icon-status-off"></td>
</tr>
<tr>
  <td class="td-day"><a class="daydate" href="/someone/diary/films/for/2024/04/01/">1</a></td>
  <td><div data-film-id="88000" data-item-name="Stalker (1979)" data-item-link="/film/stalker/"></div></td>
  <td class="td-rating"><span class="rating"></span></td>
  <td class="td-rewatch icon-status-off"></td>
</tr>
</table></body></html>`

func TestParseDiaryPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleDiaryHTML))
	require.NoError(t, err)

	entries := ParseDiaryPage(doc)
	// 日期不可解析的条目被丢弃
	require.Len(t, entries, 4)

	first := entries[0]
	require.Equal(t, "Arrival", first.Title)
	require.NotNil(t, first.ReleaseYear)
	require.Equal(t, 2016, *first.ReleaseYear)
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.WatchDate)
	require.NotNil(t, first.Rating)
	require.Equal(t, 4.5, *first.Rating)
	require.False(t, first.Rewatch)
	require.Equal(t, "/film/arrival-2016/", first.FilmPath)

	// rated-N 样式类缺失时退化到星号文本
	second := entries[1]
	require.Equal(t, "Her", second.Title)
	require.NotNil(t, second.Rating)
	require.Equal(t, 4.0, *second.Rating)
	require.Equal(t, "/film/her/", second.FilmPath)

	// 重看标记
	third := entries[2]
	require.True(t, third.Rewatch)
	require.Equal(t, 5.0, *third.Rating)

	// 没评分的条目评分为 nil
	fourth := entries[3]
	require.Equal(t, "Stalker", fourth.Title)
	require.Nil(t, fourth.Rating)
}

func TestParseDiaryPageFilmPathFromTitle(t *testing.T) {
	html := `<html><body><table><tr>
<td><a class="daydate" href="/u/diary/films/for/2024/05/01/">1</a></td>
<td><div data-film-id="9" data-item-name="Lost Highway (1997)"></div></td>
<td><span class="rating"></span></td>
<td class="td-rewatch icon-status-off"></td>
</tr></table></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	entries := ParseDiaryPage(doc)
	require.Len(t, entries, 1)
	// 链接属性缺失时从标题推出详情页路径
	require.Equal(t, "/film/lost-highway/", entries[0].FilmPath)
}

func TestParseDiaryPageEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>No diary entries</p></body></html>`))
	require.NoError(t, err)
	require.Empty(t, ParseDiaryPage(doc))
}

func TestDiaryEntryIdentity(t *testing.T) {
	year := 2016
	a := entryWithTitle("Arrival", &year)
	b := entryWithTitle("  arrival  ", &year)
	require.Equal(t, a.Identity(), b.Identity())
	require.Equal(t, "arrival|2016", a.Identity().Key())

	c := entryWithTitle("Arrival", nil)
	require.NotEqual(t, a.Identity(), c.Identity())
}
