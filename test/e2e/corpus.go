// Package e2e runs the whole engine against a themed corpus of personal
// documents and asserts that queries surface the right ones.
package e2e

import (
	"fmt"
	"strings"

	"github.com/inkroot/folio/internal/models"
)

// CorpusDocument is one entry in the e2e corpus. Every document of the
// same theme shares a signature phrase that appears nowhere else, so
// query cases can assert the right theme won.
type CorpusDocument struct {
	ID      string
	Title   string
	Content string
	Tags    []string
}

// QueryCase pairs a query with the document IDs that may satisfy it.
// At least one of ExpectedDocIDs must appear in the results.
type QueryCase struct {
	Description    string
	Query          string
	ExpectedDocIDs []string
}

// Corpus holds the documents and query cases shared by the e2e tests.
type Corpus struct {
	Documents    []CorpusDocument
	QueryCases   []QueryCase
	TotalDocs    int
	TotalQueries int
}

// corpusTheme describes one recurring subject in the collection. The
// phrase must appear lowercase and verbatim in the content so both the
// index and the phrase-containment check in query-case construction
// find it.
type corpusTheme struct {
	title   string
	tag     string
	phrase  string
	content string
}

var corpusThemes = []corpusTheme{
	{"Sourdough Starter Log", "baking", "sourdough starter feeding",
		"Keeping the jar alive takes a rhythm more than a recipe. My sourdough starter feeding schedule is two parts flour to one part water, every day at noon."},
	{"Espresso Dial-In Notes", "coffee", "espresso grind setting",
		"New bag, start coarse. The espresso grind setting moves one notch finer per shot until 36 grams run out in 28 seconds."},
	{"Thai Green Curry", "cooking", "green curry paste",
		"Heat comes from patience here. Pound the green curry paste by hand and fry it in coconut cream before the vegetables go anywhere near the pan."},
	{"Compost Pile Care", "garden", "compost pile turning",
		"A cold heap just sits there. Weekly compost pile turning keeps oxygen in the core and keeps the neighbours from noticing."},
	{"Tomato Seedlings", "garden", "tomato seedlings hardening",
		"Plants raised on a windowsill scorch outside. Gradual tomato seedlings hardening takes a week of lengthening sessions in real sun."},
	{"Marathon Base Building", "running", "marathon base mileage",
		"The plan peaks at sixty kilometres a week. Building marathon base mileage means the long run grows two kilometres every second Sunday."},
	{"Morning Yoga Sequence", "health", "sun salutation sequence",
		"Twenty minutes before breakfast, no phone in the room. A slow sun salutation sequence warms the spine before any longer hold."},
	{"Monthly Budget Review", "finance", "monthly budget categories",
		"Groceries crept up again this quarter. The monthly budget categories need splitting between pantry staples and takeaway honesty."},
	{"Index Fund Strategy", "finance", "index fund rebalancing",
		"Picking single stocks never went well. Annual index fund rebalancing keeps the allocation honest without daily ticker watching."},
	{"Kyoto Itinerary", "travel", "kyoto temple walk",
		"Five days in November for the maples. The kyoto temple walk starts at the canal by Nanzenji and wanders north until the light goes."},
	{"Patagonia Packing List", "travel", "patagonia trekking gear",
		"Wind rules everything down there. Any patagonia trekking gear list starts with a shell that shrugs off sixty knots."},
	{"Italian Flashcards", "language", "italian passato prossimo",
		"Past tense trips me up daily. The italian passato prossimo pairs avere or essere with a participle, and the choice is the whole trick."},
	{"Goroutine Patterns", "golang", "goroutine worker pool",
		"Unbounded fan-out bites eventually. A goroutine worker pool behind a buffered channel caps how much work is in flight."},
	{"Rust Borrow Checker", "rust", "rust borrow checker",
		"Fighting the compiler is the tutorial. The rust borrow checker rejects aliased mutation long before it becomes a crash report."},
	{"SQLite Page Cache", "databases", "sqlite page cache",
		"Most reads never touch the disk. The sqlite page cache holds hot btree pages and is the reason small queries feel free."},
	{"Regex Lookahead Notes", "reference", "regex negative lookahead",
		"Zero-width assertions confuse everyone exactly once. A regex negative lookahead matches a position in the input, not characters."},
	{"Git Rebase Workflow", "reference", "interactive rebase squash",
		"History should read as whole ideas. An interactive rebase squash folds every fixup commit back into the change it repairs."},
	{"Home Network Map", "homelab", "vlan subnet layout",
		"The flat network finally got split. The new vlan subnet layout parks cameras and printers far away from the laptops."},
	{"Greenhouse Sensor", "homelab", "greenhouse humidity sensor",
		"The tomatoes needed eyes on them. A greenhouse humidity sensor on the shelf posts a reading to the broker every minute."},
	{"Dovetail Joint Practice", "woodworking", "dovetail joint layout",
		"Pins first, always. Careful dovetail joint layout with a marking gauge beats every jig I have tried so far."},
	{"Watercolor Washes", "art", "watercolor flat wash",
		"Paper choice decides half the result. A clean watercolor flat wash needs a loaded brush, a tilted board, and no second thoughts."},
	{"Sicilian Defense Lines", "chess", "sicilian defense najdorf",
		"Open games got boring eventually. The sicilian defense najdorf trades early king safety for a counterattack that actually arrives."},
	{"Telescope Collimation", "astronomy", "newtonian telescope collimation",
		"Blurry stars are usually alignment, not optics. Proper newtonian telescope collimation centers the secondary before anyone touches the primary."},
	{"Sprint Retro Notes", "work", "sprint retro actions",
		"Deploy fear came up twice this round. The sprint retro actions include a staging soak before any Friday release."},
	{"Reading Notes on Focus", "books", "deep work focus blocks",
		"Context switching eats whole mornings. Scheduling deep work focus blocks of ninety minutes puts the calendar on my side for once."},
}

// BuildCorpus replicates each theme three times into 75 documents and
// derives one query case per theme.
func BuildCorpus() *Corpus {
	docs := buildDocuments(3 * len(corpusThemes))
	cases := buildQueryCases(docs)
	return &Corpus{
		Documents:    docs,
		QueryCases:   cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

func buildDocuments(n int) []CorpusDocument {
	out := make([]CorpusDocument, 0, n)
	for i := 0; i < n; i++ {
		theme := corpusThemes[i%len(corpusThemes)]
		out = append(out, CorpusDocument{
			ID:      fmt.Sprintf("doc-%03d", i),
			Title:   fmt.Sprintf("%s (%d)", theme.title, i/len(corpusThemes)+1),
			Content: theme.content,
			Tags:    []string{theme.tag},
		})
	}
	return out
}

// buildQueryCases makes one case per theme, expecting any replica of
// that theme. Replicas share content, so all of them are fair answers.
func buildQueryCases(docs []CorpusDocument) []QueryCase {
	var cases []QueryCase
	for _, theme := range corpusThemes {
		var expected []string
		for _, d := range docs {
			if containsPhrase(d, theme.phrase) {
				expected = append(expected, d.ID)
			}
		}
		if len(expected) == 0 {
			continue
		}
		cases = append(cases, QueryCase{
			Description:    fmt.Sprintf("query %q surfaces %q", theme.phrase, theme.title),
			Query:          theme.phrase,
			ExpectedDocIDs: expected,
		})
	}
	return cases
}

func containsPhrase(d CorpusDocument, phrase string) bool {
	return strings.Contains(d.Title, phrase) || strings.Contains(d.Content, phrase)
}

// ToDocuments converts the corpus for engine processing. Theme tags ride
// along as metadata so the engine's tag reconciliation sees them.
func (c *Corpus) ToDocuments() []*models.Document {
	out := make([]*models.Document, len(c.Documents))
	for i := range c.Documents {
		d := &c.Documents[i]
		out[i] = &models.Document{
			ID:       d.ID,
			Title:    d.Title,
			Content:  d.Content,
			Metadata: map[string]interface{}{"tags": d.Tags},
		}
	}
	return out
}

// DocIDsTagged returns the IDs of every corpus document carrying the
// given tag name.
func (c *Corpus) DocIDsTagged(tag string) []string {
	var out []string
	for _, d := range c.Documents {
		for _, dt := range d.Tags {
			if dt == tag {
				out = append(out, d.ID)
				break
			}
		}
	}
	return out
}
