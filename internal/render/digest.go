package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"tvnotifier/internal/domain"
)

const (
	dateTimeLayout = "Mon. Jan. 2 3:04 PM"
	dateLayout     = "Mon. Jan. 2"

	showPageURL = "https://www.tvmaze.com/shows/%d"
)

// Digest partitions the already filtered, time-ordered show list into the
// "airing today" and "future" sections, alongside qualifying movies.
// It is a pure value: rendering it twice yields byte-identical output.
type Digest struct {
	Today  []domain.ShowEvent
	Future []domain.ShowEvent
	Movies []domain.MovieMatch

	loc *time.Location
}

// Partition splits events on the calendar date of the given instant.
// Ascending time order within each section is preserved from the input.
func Partition(shows []domain.ShowEvent, movies []domain.MovieMatch, now time.Time, loc *time.Location) Digest {
	if loc == nil {
		loc = time.Local
	}

	today := civilDate(now.In(loc))
	d := Digest{Movies: movies, loc: loc}
	for _, show := range shows {
		if civilDate(show.AirTime.In(loc)).Equal(today) {
			d.Today = append(d.Today, show)
		} else {
			d.Future = append(d.Future, show)
		}
	}
	return d
}

// Subject builds the digest email subject for the given day.
func Subject(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "Upcoming shows for " + now.In(loc).Format(dateLayout)
}

// PlainText renders the digest for console output. It carries exactly the
// same information as the HTML variant, without markup.
func (d Digest) PlainText() string {
	var b strings.Builder

	b.WriteString("Today's shows:\n")
	if len(d.Today) > 0 {
		for _, show := range d.Today {
			b.WriteString(d.eventLine(show))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("Nothing airing today.\n")
	}

	if len(d.Future) > 0 {
		b.WriteString("\nFuture shows:\n")
		for _, show := range d.Future {
			b.WriteString(d.eventLine(show))
			b.WriteString("\n")
		}
	}

	if len(d.Movies) > 0 {
		b.WriteString("\n")
		for _, movie := range d.Movies {
			b.WriteString(movieLine(movie))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// HTML renders the digest for rich-text email, hyperlinking each show to its
// canonical TVMaze page and closing with a manage-subscriptions footer.
func (d Digest) HTML(siteURL string) string {
	var b strings.Builder

	b.WriteString("<pre><b>Today's shows:<br />")
	if len(d.Today) > 0 {
		for _, show := range d.Today {
			b.WriteString(d.eventHTML(show))
			b.WriteString("<br />")
		}
	} else {
		b.WriteString("<i>Nothing airing today.</i>")
	}
	b.WriteString("</b><br /><br />")

	if len(d.Future) > 0 {
		b.WriteString("Future shows:<br />")
		for _, show := range d.Future {
			b.WriteString(d.eventHTML(show))
			b.WriteString("<br />")
		}
	}

	if len(d.Movies) > 0 {
		b.WriteString("<br />")
		for _, movie := range d.Movies {
			b.WriteString(html.EscapeString(movieLine(movie)))
			b.WriteString("<br />")
		}
	}

	fmt.Fprintf(&b, "<br /><br />Manage subscriptions on <a href=%q>TV Notifier UI</a>", siteURL)
	b.WriteString("</pre>")

	return b.String()
}

func (d Digest) eventLine(show domain.ShowEvent) string {
	return fmt.Sprintf("%s: %s (%s)",
		show.AirTime.In(d.loc).Format(dateTimeLayout),
		show.ShowName,
		show.EpisodeName)
}

func (d Digest) eventHTML(show domain.ShowEvent) string {
	return fmt.Sprintf("%s: <a href=\"%s\">%s</a> (%s)",
		show.AirTime.In(d.loc).Format(dateTimeLayout),
		fmt.Sprintf(showPageURL, show.ShowID),
		html.EscapeString(show.ShowName),
		html.EscapeString(show.EpisodeName))
}

func movieLine(movie domain.MovieMatch) string {
	return fmt.Sprintf("%s available on %s", movie.Title, strings.Join(movie.Platforms, ", "))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
