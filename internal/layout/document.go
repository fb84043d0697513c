package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the positional index over one bill's fragments, in document
// order. It replaces tree sibling-walking with indexed access into this
// list: "the value row after an anchor" is Next(anchor, n), and aligned
// rows/sections are recovered with FragmentsAtTop / FragmentsWithin.
type Document struct {
	Fragments []Fragment
}

// ParseDocument reads positioned HTML (the pdf2txt/pdftohtml output for one
// statement) and indexes every absolutely-positioned div. Divs without a
// parsable position box are skipped; they are page furniture, not bill
// content.
func ParseDocument(r io.Reader) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing bill html: %w", err)
	}

	d := &Document{}
	gq.Find("div").Each(func(_ int, sel *goquery.Selection) {
		style, ok := sel.Attr("style")
		if !ok {
			return
		}
		bbox, err := ParseBBox(style)
		if err != nil {
			return
		}

		// Line breaks delimit subfields within a fragment.
		sel.Find("br").ReplaceWithHtml("\n")
		text := sel.Text()

		d.Fragments = append(d.Fragments, Fragment{
			BBox:   bbox,
			Index:  len(d.Fragments),
			Text:   text,
			Fields: NormalizeFields(strings.Split(text, "\n")),
		})
	})
	return d, nil
}

// Find returns the first fragment whose text contains substr.
func (d *Document) Find(substr string) (Fragment, bool) {
	for _, f := range d.Fragments {
		if f.ContainsText(substr) {
			return f, true
		}
	}
	return Fragment{}, false
}

// FindAll returns every fragment whose text contains substr, in document
// order.
func (d *Document) FindAll(substr string) []Fragment {
	var out []Fragment
	for _, f := range d.Fragments {
		if f.ContainsText(substr) {
			out = append(out, f)
		}
	}
	return out
}

// FindFunc returns the first fragment matching the predicate.
func (d *Document) FindFunc(match func(Fragment) bool) (Fragment, bool) {
	for _, f := range d.Fragments {
		if match(f) {
			return f, true
		}
	}
	return Fragment{}, false
}

// FindAllFunc returns every fragment matching the predicate.
func (d *Document) FindAllFunc(match func(Fragment) bool) []Fragment {
	var out []Fragment
	for _, f := range d.Fragments {
		if match(f) {
			out = append(out, f)
		}
	}
	return out
}

// Next returns the fragment hops positions after f in document order. The
// bill templates place a label fragment and its value fragment(s) adjacent
// in the converter output, so value lookups are fixed offsets from an
// anchor.
func (d *Document) Next(f Fragment, hops int) (Fragment, bool) {
	i := f.Index + hops
	if i < 0 || i >= len(d.Fragments) {
		return Fragment{}, false
	}
	return d.Fragments[i], true
}

// FragmentsAtTop returns all fragments sharing the exact top coordinate, in
// document order. A shared top is how the templates express one visual row.
func (d *Document) FragmentsAtTop(top int) []Fragment {
	var out []Fragment
	for _, f := range d.Fragments {
		if f.Top == top {
			out = append(out, f)
		}
	}
	return out
}

// FragmentsWithin returns fragments whose top falls in [topMin, topMax), in
// document order. A negative leftMin disables the left bound.
func (d *Document) FragmentsWithin(topMin, topMax, leftMin int) []Fragment {
	var out []Fragment
	for _, f := range d.Fragments {
		if f.Top < topMin || f.Top >= topMax {
			continue
		}
		if leftMin >= 0 && f.Left < leftMin {
			continue
		}
		out = append(out, f)
	}
	return out
}
