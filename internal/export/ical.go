package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/studybat/internal/tracker"
)

const (
	icsProdID    = "-//StudyBat//Academic Tracker//EN"
	icsTimestamp = "20060102T150405Z"
	eventLength  = time.Hour
)

// newUID generates globally unique event identifiers.
var newUID = func() string {
	return uuid.NewString() + "@studybat.com"
}

var icsEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// WriteICS writes an iCalendar document with one one-hour event per
// assignment that is not completed.
func WriteICS(w io.Writer, assignments []tracker.Assignment) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
		bw.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", icsProdID)
	for _, a := range assignments {
		if a.Completed() {
			continue
		}
		start := a.DueDate.UTC()
		description := a.Description
		if description == "" {
			description = "No description"
		}
		line("BEGIN:VEVENT")
		line("UID:%s", newUID())
		line("DTSTART:%s", start.Format(icsTimestamp))
		line("DTEND:%s", start.Add(eventLength).Format(icsTimestamp))
		line("SUMMARY:%s", icsEscaper.Replace(a.Title))
		line("DESCRIPTION:%s", icsEscaper.Replace(a.Subject+" - "+description))
		line("LOCATION:%s", icsEscaper.Replace(a.Subject))
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return bw.Flush()
}

func ToICS(assignments []tracker.Assignment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ics file: %w", err)
	}
	defer f.Close()

	if err := WriteICS(f, assignments); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return f.Close()
}
