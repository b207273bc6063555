// Package page turns server-rendered HTML into a dom.Document. The CSS
// selectors below are the binding contract with whatever renders the
// markup; nothing else in the page is read.
package page

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"taskflow/internal/dom"
)

// Selectors bound by the controller.
const (
	SelToken         = `input[name=csrfmiddlewaretoken]`
	SelCheckbox      = `.task-checkbox`
	SelTitleInput    = `.task-title-input`
	SelNewTaskInput  = `.new-task-input`
	SelTaskItem      = `.task-item`
	SelCard          = `.card`
	SelTooltip       = `[data-bs-toggle="tooltip"]`
	SelModal         = `.modal`
	SelModalInputs   = `input[type="text"], input[type="email"], textarea`
	SelCalendarTable = `.calendar-table`
	SelCalendarDay   = `.calendar-day a`
	SelToday         = `.bg-warning`
	SelPasswordForm  = `#changePasswordForm form`
	SelAlert         = `.alert[data-level]`
	SelNavLink       = `a[data-nav]`
)

// TokenField is the name of the hidden anti-forgery input.
const TokenField = "csrfmiddlewaretoken"

// Parse reads an HTML page and builds the document the controller binds to.
func Parse(r io.Reader) (*dom.Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	b := &builder{
		doc:    dom.New(),
		elems:  make(map[*html.Node]*dom.Element),
		forms:  make(map[*html.Node]*dom.Form),
		inputs: make(map[*html.Node]*dom.Input),
	}
	doc := b.doc

	doc.Title = strings.TrimSpace(gq.Find("h1").First().Text())
	doc.Token = Token(gq.Selection)

	gq.Find(SelCard).Each(func(_ int, s *goquery.Selection) {
		doc.AddCard(b.element(s))
	})

	// Task controls go through the input cache so that a form holding one
	// sees the same element the bindings act on.
	gq.Find(SelCheckbox).Each(func(_ int, s *goquery.Selection) {
		_, checked := s.Attr("checked")
		cb := &dom.Checkbox{Element: b.input(s).Element, Checked: checked, Item: b.item(s)}
		doc.Checkboxes = append(doc.Checkboxes, cb)
	})

	gq.Find(SelTitleInput).Each(func(_ int, s *goquery.Selection) {
		in := b.input(s)
		in.Item = b.item(s)
		doc.TitleInputs = append(doc.TitleInputs, in)
	})

	gq.Find(SelNewTaskInput).Each(func(_ int, s *goquery.Selection) {
		doc.NewTaskInputs = append(doc.NewTaskInputs, b.input(s))
	})

	gq.Find(SelTooltip).Each(func(_ int, s *goquery.Selection) {
		el := b.element(s)
		el.SetData("title", s.AttrOr("title", ""))
		doc.Tooltips = append(doc.Tooltips, el)
	})

	doc.CalendarTable = gq.Find(SelCalendarTable).Length() > 0
	gq.Find(SelCalendarDay).Each(func(_ int, s *goquery.Selection) {
		today := s.Closest(SelToday).Length() > 0
		l := doc.AddCalendarDay(strings.TrimSpace(s.Text()), s.AttrOr("href", ""), today)
		copyData(l.Element, s)
	})

	gq.Find(SelModal).Each(func(_ int, s *goquery.Selection) {
		m := doc.AddModal(s.AttrOr("id", ""))
		s.Find(SelModalInputs).Each(func(_ int, in *goquery.Selection) {
			m.Inputs = append(m.Inputs, b.input(in))
		})
	})

	gq.Find("form").Each(func(_ int, s *goquery.Selection) {
		b.form(s)
	})
	if fs := gq.Find(SelPasswordForm).First(); fs.Length() > 0 {
		f := b.form(fs)
		doc.PasswordForm = f
		if m := doc.Modal("changePasswordForm"); m != nil {
			m.Form = f
		}
	}

	gq.Find(SelNavLink).Each(func(_ int, s *goquery.Selection) {
		doc.AddLink(s.AttrOr("data-nav", ""), strings.TrimSpace(s.Text()), s.AttrOr("href", ""))
	})

	gq.Find(SelAlert).Each(func(_ int, s *goquery.Selection) {
		doc.Messages = append(doc.Messages, dom.Message{
			Level: s.AttrOr("data-level", ""),
			Text:  strings.TrimSpace(s.Text()),
		})
	})

	return doc, nil
}

// Token returns the anti-forgery token embedded in a page, or "".
func Token(s *goquery.Selection) string {
	return strings.TrimSpace(s.Find(SelToken).First().AttrOr("value", ""))
}

type builder struct {
	doc    *dom.Document
	elems  map[*html.Node]*dom.Element
	forms  map[*html.Node]*dom.Form
	inputs map[*html.Node]*dom.Input
}

// element returns the dom element for the first node of s, creating it once
// so that a card, a task item and a tooltip may share it.
func (b *builder) element(s *goquery.Selection) *dom.Element {
	n := s.Get(0)
	if el, ok := b.elems[n]; ok {
		return el
	}
	el := b.doc.NewElement(s.AttrOr("id", ""), strings.Fields(s.AttrOr("class", ""))...)
	copyData(el, s)
	b.elems[n] = el
	return el
}

// item returns the task item that owns s: the closest .task-item, else the
// closest .card.
func (b *builder) item(s *goquery.Selection) *dom.Element {
	owner := s.Closest(SelTaskItem)
	if owner.Length() == 0 {
		owner = s.Closest(SelCard)
	}
	if owner.Length() == 0 {
		return nil
	}
	return b.element(owner)
}

// input returns the dom input for s, creating it once so that a modal and
// its form share their inputs.
func (b *builder) input(s *goquery.Selection) *dom.Input {
	n := s.Get(0)
	if in, ok := b.inputs[n]; ok {
		return in
	}
	typ := s.AttrOr("type", "text")
	value := s.AttrOr("value", "")
	switch goquery.NodeName(s) {
	case "textarea":
		typ, value = "textarea", s.Text()
	case "select":
		typ = "select"
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		value = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
	}
	in := b.doc.NewInput(s.AttrOr("id", ""), s.AttrOr("name", ""), typ, value, strings.Fields(s.AttrOr("class", ""))...)
	in.Placeholder = s.AttrOr("placeholder", "")
	copyData(in.Element, s)
	b.inputs[n] = in
	return in
}

// form returns the dom form for s, creating it once.
func (b *builder) form(s *goquery.Selection) *dom.Form {
	n := s.Get(0)
	if f, ok := b.forms[n]; ok {
		return f
	}
	f := b.doc.AddForm(s.AttrOr("id", ""), strings.ToUpper(s.AttrOr("method", "GET")), s.AttrOr("action", ""))
	b.forms[n] = f
	s.Find("input, textarea, select").Each(func(_ int, in *goquery.Selection) {
		f.Inputs = append(f.Inputs, b.input(in))
	})
	if btn := s.Find(`button[type="submit"]`).First(); btn.Length() > 0 {
		f.Button = b.doc.NewElement(btn.AttrOr("id", ""), strings.Fields(btn.AttrOr("class", ""))...)
	}
	return f
}

func copyData(el *dom.Element, s *goquery.Selection) {
	n := s.Get(0)
	if n == nil {
		return
	}
	for _, a := range n.Attr {
		if key, ok := strings.CutPrefix(a.Key, "data-"); ok {
			el.SetData(key, a.Val)
		}
	}
}
