package feed

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"
)

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	Content     string `xml:"encoded"` // content:encoded
	PubDate     string `xml:"pubDate"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// recoverEntries walks the token stream of a broken document with a non-strict decoder and keeps
// every complete <item> or <entry> found before the first unrecoverable fault.
func recoverEntries(data []byte) *Feed {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	feed := &Feed{}
	for {
		token, err := decoder.Token()
		if err != nil {
			return feed
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch strings.ToLower(start.Name.Local) {
		case "item":
			var item rssItem
			if err := decoder.DecodeElement(&item, &start); err != nil {
				return feed
			}
			feed.Entries = append(feed.Entries, item.entry())

		case "entry":
			var entry atomEntry
			if err := decoder.DecodeElement(&entry, &start); err != nil {
				return feed
			}
			feed.Entries = append(feed.Entries, entry.entry())

		case "title":
			if feed.Title != "" || len(feed.Entries) != 0 {
				continue
			}
			var title string
			if err := decoder.DecodeElement(&title, &start); err != nil {
				return feed
			}
			feed.Title = strings.TrimSpace(title)
		}
	}
}

func (i *rssItem) entry() *Entry {
	link := i.Link
	if strings.TrimSpace(link) == "" && strings.HasPrefix(strings.TrimSpace(i.GUID), "http") {
		link = i.GUID
	}

	summary := i.Description
	if strings.TrimSpace(summary) == "" {
		summary = i.Content
	}

	return newEntry(i.Title, link, summary, i.PubDate)
}

func (e *atomEntry) entry() *Entry {
	var link string
	for _, l := range e.Links {
		if l.Rel == "alternate" || l.Rel == "" {
			link = l.Href
			break
		}
	}
	if link == "" && len(e.Links) != 0 {
		link = e.Links[0].Href
	}

	summary := e.Summary
	if strings.TrimSpace(summary) == "" {
		summary = e.Content
	}

	return newEntry(e.Title, link, summary, e.Published)
}
