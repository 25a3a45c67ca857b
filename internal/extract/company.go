package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// CompanyRef is one row of the listed-companies summary table.
type CompanyRef struct {
	Code     string
	Name     string
	Province string
	URL      string
}

// Labels on the general-info company page. The surrounding spaces are part of
// the markup.
const (
	labelTaxNo   = " Vergi No "
	labelRegNo   = " Ticaret Sicil Numarası "
	labelScope   = " Şirketin Faaliyet Konusu "
	labelEmail   = "Elektronik Posta Adresi"
	labelWebsite = " İnternet Adresi "
	labelAddress = " Merkez Adresi "
	labelSector  = " Şirketin Sektörü "
)

// CompanyList parses the listed-companies summary page into refs. Row links
// are relative, so hrefPrefix rebuilds absolute detail URLs.
func (e *Extractor) CompanyList(doc *mirror.Document, hrefPrefix string) ([]CompanyRef, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse company list: %w", err)
	}

	container := page.Find("#printAreaDiv")
	if container.Length() == 0 {
		return nil, fmt.Errorf("company list: missing print area container")
	}

	var refs []CompanyRef
	container.Find("div.w-clearfix.w-inline-block.comp-row").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("div")
		if cells.Length() < 3 {
			return
		}
		href, ok := cells.Eq(0).Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		refs = append(refs, CompanyRef{
			Code:     cellText(cells.Eq(0)),
			Name:     cellText(cells.Eq(1)),
			Province: cellText(cells.Eq(2)),
			URL:      hrefPrefix + href,
		})
	})
	if len(refs) == 0 {
		return nil, fmt.Errorf("company list: no company rows found")
	}
	return refs, nil
}

// CompanyDetail parses a company general-info page into an Entity. The
// province is the last token of the head office address, which ends in
// "<district>/<PROVINCE>".
func (e *Extractor) CompanyDetail(doc *mirror.Document) (*mirror.Entity, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse company detail: %w", err)
	}

	name := strings.TrimSpace(page.Find("#companyOrFundNameArea").First().Text())
	code := strings.TrimSpace(page.Find("h6").First().Text())
	if name == "" || code == "" {
		return nil, fmt.Errorf("company detail: missing name or code header")
	}

	container := page.Find("#printAreaDiv")
	if container.Length() == 0 {
		return nil, fmt.Errorf("company detail: missing print area container")
	}
	divs := container.Find("div")

	address, err := labeledValue(divs, labelAddress)
	if err != nil {
		return nil, err
	}
	taxNo, err := labeledValue(divs, labelTaxNo)
	if err != nil {
		return nil, err
	}
	regNo, err := labeledValue(divs, labelRegNo)
	if err != nil {
		return nil, err
	}
	scope, err := labeledValue(divs, labelScope)
	if err != nil {
		return nil, err
	}
	email, err := labeledValue(divs, labelEmail)
	if err != nil {
		return nil, err
	}
	website, err := labeledValue(divs, labelWebsite)
	if err != nil {
		return nil, err
	}
	// Not every company page carries a sector row.
	sector, _ := labeledValue(divs, labelSector)

	return &mirror.Entity{
		Code:     code,
		Name:     name,
		Province: provinceFromAddress(address),
		URL:      doc.URL,
		TaxNo:    taxNo,
		RegNo:    regNo,
		Scope:    scope,
		Email:    email,
		Website:  website,
		Address:  address,
		Sector:   sector,
	}, nil
}

// labeledValue finds a caption div by its exact text and returns the text of
// the next export div after it in document order.
func labeledValue(divs *goquery.Selection, label string) (string, error) {
	for i := 0; i < divs.Length(); i++ {
		if divs.Eq(i).Text() != label {
			continue
		}
		for j := i + 1; j < divs.Length(); j++ {
			if divs.Eq(j).HasClass("exportDiv") {
				return strings.TrimSpace(divs.Eq(j).Text()), nil
			}
		}
	}
	return "", fmt.Errorf("company detail: missing %q row", strings.TrimSpace(label))
}

func provinceFromAddress(address string) string {
	parts := strings.Split(address, "/")
	words := strings.Fields(parts[len(parts)-1])
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func cellText(cell *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(cell.Text(), "\n", ""))
}
