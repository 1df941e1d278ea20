// Package e2e provides end-to-end tests over a large history corpus and
// passage files of every supported format.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/bunka/internal/models"
)

// QueryTestCase defines a history search and the entry that must be found.
type QueryTestCase struct {
	Query       string
	ExpectedIDs []string
	Description string
}

// Corpus holds analyses and search cases for E2E tests.
type Corpus struct {
	Entries      []models.AnalysisResult
	TestCases    []QueryTestCase
	TotalEntries int
	TotalQueries int
}

type topic struct {
	language string
	text     string
	phrase   string
	origin   string
	concept  string
	place    string
}

var topics = []topic{
	{"hi", "The Ramayana is an ancient Indian epic about Prince Rama and his wife Sita.", "Prince Rama", "Composed by the sage Valmiki in Sanskrit.", "Dharma", "Ayodhya"},
	{"ja", "Haiku is a traditional form of Japanese poetry with a five seven five pattern.", "Japanese poetry", "Refined by Matsuo Basho in the Edo period.", "Kigo", "Edo"},
	{"fr", "The Renaissance was a period of cultural rebirth across Europe.", "cultural rebirth", "Began in fourteenth century Florence.", "Humanism", "Florence"},
	{"zh", "The Silk Road linked Chang'an with the markets of the Mediterranean.", "Silk Road", "Opened by Han dynasty envoys.", "Caravanserai", "Chang'an"},
	{"ar", "The House of Wisdom in Baghdad gathered translators of Greek science.", "House of Wisdom", "Flourished under the Abbasid caliphs.", "Translation movement", "Baghdad"},
	{"es", "Día de los Muertos honors departed family members with ofrendas.", "ofrendas", "Blends Aztec ritual with Catholic observance.", "Ofrenda", "Oaxaca"},
	{"de", "The Brothers Grimm collected German folk tales in the nineteenth century.", "folk tales", "Part of the Romantic nationalist movement.", "Märchen", "Kassel"},
	{"ta", "Sangam literature preserves the earliest Tamil poetry of love and war.", "Sangam literature", "Composed in the ancient Tamil academies.", "Akam and Puram", "Madurai"},
	{"bn", "Rabindranath Tagore wrote the Gitanjali song offerings in Bengali.", "Gitanjali", "Earned the 1913 Nobel Prize in Literature.", "Rabindra Sangeet", "Santiniketan"},
	{"te", "Kuchipudi is a classical dance drama from the Telugu lands.", "dance drama", "Rooted in Bhakti devotional performance.", "Abhinaya", "Kuchipudi village"},
	{"mr", "The Ganesh festival fills Pune with processions and music.", "Ganesh festival", "Popularized as a public event by Lokmanya Tilak.", "Sarvajanik utsav", "Pune"},
	{"en", "Stonehenge aligns with the midsummer sunrise on the Salisbury Plain.", "midsummer sunrise", "Raised in stages during the Neolithic.", "Solstice", "Salisbury"},
	{"en", "The griots of West Africa keep genealogies alive through song.", "griots", "Central to the Mali Empire court.", "Oral tradition", "Niani"},
	{"ja", "The tea ceremony expresses harmony respect purity and tranquility.", "tea ceremony", "Codified by Sen no Rikyu.", "Wabi-sabi", "Kyoto"},
	{"es", "Flamenco joins cante toque and baile in Andalusian performance.", "Flamenco", "Shaped by Romani communities of Andalusia.", "Duende", "Seville"},
	{"fr", "The Bayeux Tapestry embroiders the Norman conquest of England.", "Bayeux Tapestry", "Commissioned after the Battle of Hastings.", "Embroidery narrative", "Bayeux"},
	{"zh", "Peking opera combines song mime and acrobatics in painted masks.", "Peking opera", "Formed in the Qing court of the late eighteenth century.", "Lianpu", "Beijing"},
	{"ar", "The One Thousand and One Nights are framed by the storytelling of Scheherazade.", "Scheherazade", "Collected during the Islamic Golden Age.", "Frame narrative", "Cairo"},
	{"de", "Bauhaus design united crafts and fine arts in Weimar.", "Bauhaus design", "Founded by Walter Gropius in 1919.", "Gesamtkunstwerk", "Weimar"},
	{"hi", "Diwali celebrates the return of light with lamps and sweets.", "return of light", "Connected to Rama's homecoming.", "Diya", "Varanasi"},
}

// BuildCorpus returns n analyses, newest first, and one search case per topic.
// Entries past the topic list repeat topics without their signature phrase.
func BuildCorpus(n int) *Corpus {
	entries := make([]models.AnalysisResult, 0, n)
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		text := t.text
		if i >= len(topics) {
			text = strings.ReplaceAll(text, t.phrase, fmt.Sprintf("passage %d", i+1))
		}
		entries = append(entries, models.AnalysisResult{
			ID:                  models.FlexString(fmt.Sprintf("%d", n-i)),
			InputText:           text,
			Language:            t.language,
			CulturalOrigin:      t.origin,
			KeyConcepts:         []models.KeyConcept{{Term: t.concept}},
			GeographicLocations: []models.GeoLocation{{Name: t.place}},
		})
	}
	var cases []QueryTestCase
	for i := 0; i < len(topics) && i < n; i++ {
		cases = append(cases, QueryTestCase{
			Query:       topics[i].phrase,
			ExpectedIDs: []string{entries[i].ID.String()},
			Description: fmt.Sprintf("query %q should return entry %s", topics[i].phrase, entries[i].ID),
		})
	}
	return &Corpus{Entries: entries, TestCases: cases, TotalEntries: len(entries), TotalQueries: len(cases)}
}

// Oldest returns the entries oldest first, the order the service stores them in.
func (c *Corpus) Oldest() []models.AnalysisResult {
	out := make([]models.AnalysisResult, len(c.Entries))
	for i, e := range c.Entries {
		out[len(out)-1-i] = e
	}
	return out
}
