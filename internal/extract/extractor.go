// Package extract parses disclosure pages into records.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// disclaimerText is the boilerplate compliance paragraph repeated on nearly
// every disclosure. It is collapsed to a placeholder so the stored explanation
// keeps only the substantive text.
const disclaimerText = `Yukarıdaki açıklamalarımızın, Sermaye Piyasası Kurulunun yürürlükteki Özel Durumlar Tebliğinde yer alan esaslara uygun olduğunu, bu konuda/konularda tarafımıza ulaşan bilgileri tam olarak yansıttığını, bilgilerin defter, kayıt ve belgelerimize uygun olduğunu, konuyla ilgili bilgileri tam ve doğru olarak elde etmek için gerekli tüm çabaları gösterdiğimizi ve yapılan bu açıklamalardan sorumlu olduğumuzu beyan ederiz.`

const relatedEntitiesLabel = "İlgili Şirketler"

// excludedFragments are table scaffolding strings that carry no content.
var excludedFragments = map[string]struct{}{
	"A":          {},
	"+":          {},
	"-":          {},
	"İmza":       {},
	"Özet Bilgi": {},
}

// maxAncestorDepth bounds the hidden-ancestor walk so a pathological document
// cannot loop forever.
const maxAncestorDepth = 64

// Extractor parses KAP disclosure pages with goquery. It implements
// mirror.Extractor; parse failures are plain errors and the caller decides
// how to classify them.
type Extractor struct{}

// New returns a page Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses one disclosure page into a Record.
func (e *Extractor) Extract(doc *mirror.Document, id int64) (*mirror.Record, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page for id %d: %w", id, err)
	}

	code, err := extractCode(page)
	if err != nil {
		return nil, fmt.Errorf("id %d: %w", id, err)
	}

	brief := page.Find("div.w-row.modal-briefsummary").First().
		Find("div.type-medium.bi-sky-black")
	if brief.Length() < 4 {
		return nil, fmt.Errorf("id %d: brief summary block has %d fields, want 4", id, brief.Length())
	}

	return &mirror.Record{
		ID:              id,
		Code:            code,
		PublishDate:     strings.TrimSpace(brief.Eq(0).Text()),
		DisclosureType:  strings.TrimSpace(brief.Eq(1).Text()),
		Year:            strings.TrimSpace(brief.Eq(2).Text()),
		Period:          strings.TrimSpace(brief.Eq(3).Text()),
		Summary:         extractSummary(page),
		RelatedEntities: extractRelated(page),
		Explanation:     extractExplanations(page),
	}, nil
}

// extractCode reads the ticker from the modal header. Headers that carry a
// company name before the ticker use "Name, CODE", so the part after the
// first comma wins.
func extractCode(page *goquery.Document) (string, error) {
	header := page.Find("div.modal-headertext").First().
		Find("div.type-medium.bi-dim-gray").First()
	if header.Length() == 0 {
		return "", fmt.Errorf("missing header code block")
	}
	code := header.Text()
	if i := strings.Index(code, ","); i >= 0 {
		code = code[i+1:]
	}
	return strings.TrimSpace(code), nil
}

// extractSummary joins the div following every span labeled "Özet".
func extractSummary(page *goquery.Document) string {
	var parts []string
	page.Find("span").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(strings.TrimSpace(s.Text()), "Özet") {
			return
		}
		next := s.NextAllFiltered("div").First()
		if text := strings.TrimSpace(next.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "")
}

// extractRelated finds the related-companies table row. Disclosures without
// one store the empty-list literal.
func extractRelated(page *goquery.Document) string {
	related := "[]"
	page.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), relatedEntitiesLabel) {
			return true
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		related = strings.TrimSpace(cells.Eq(1).Text())
		return false
	})
	return related
}

// extractExplanations collects the visible free-text of the modal-info
// container. Semicolons inside fragments become spaces because the semicolon
// is the fragment separator.
func extractExplanations(page *goquery.Document) string {
	container := page.Find("div.modal-info").First()
	if container.Length() == 0 {
		return ""
	}

	var parts []string
	for _, root := range container.Nodes {
		visitTextNodes(root, func(n *html.Node) {
			text := strings.TrimSpace(n.Data)
			if text == "" ||
				strings.Contains(n.Data, "{{") ||
				strings.Contains(n.Data, "oda_") {
				return
			}
			if _, skip := excludedFragments[text]; skip {
				return
			}
			if hasHiddenAncestor(n) {
				return
			}
			text = strings.ReplaceAll(text, disclaimerText, "{disclaimer}")
			text = strings.ReplaceAll(text, ";", " ")
			text = strings.ReplaceAll(text, " ", " ")
			parts = append(parts, text)
		})
	}
	return strings.Join(parts, ";")
}

func visitTextNodes(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.TextNode {
		fn(n)
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "style", "script":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visitTextNodes(c, fn)
	}
}

// hasHiddenAncestor walks up the parent chain looking for an inline
// "display: none". The walk is depth-bounded rather than recursive.
func hasHiddenAncestor(n *html.Node) bool {
	for p, depth := n.Parent, 0; p != nil && depth < maxAncestorDepth; p, depth = p.Parent, depth+1 {
		for _, attr := range p.Attr {
			if attr.Key == "style" && strings.Contains(attr.Val, "display: none") {
				return true
			}
		}
	}
	return false
}
