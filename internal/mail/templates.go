package mail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/medialab/equipment-booking/internal/model"
)

const (
	defaultSubject = "Reminder: your {{.ConsoleType}} booking on {{.Date}} at {{.TimeSlot}}"
	defaultBody    = `Hello {{.Name}},

this is a reminder that your booking at the media lab starts {{.StartsAt}}.

Reservation: {{.ReservationID}}
Unit:        {{.UnitID}}
{{- if .Games}}
Games:       {{.Games}}
{{- end}}

If you can no longer make it, please cancel so someone else can use the unit.

Media Lab
`
)

// TemplateFile is the layout of the optional reminder templates file.
//
//	[reminder]
//	subject = "..."
//	body = """..."""
type TemplateFile struct {
	Reminder struct {
		Subject string `toml:"subject"`
		Body    string `toml:"body"`
	} `toml:"reminder"`
}

// Templates renders reminder mails.  Times are shown in the lab's zone.
type Templates struct {
	subject *template.Template
	body    *template.Template
	loc     *time.Location
}

// reminderData is what the templates can reference.
type reminderData struct {
	Name          string
	Email         string
	ReservationID string
	UnitID        uint64
	ConsoleType   string
	Date          string
	TimeSlot      string
	StartsAt      string
	HoursBefore   int
	Games         string
}

// LoadTemplates reads path when it is not empty and falls back to the
// built-in text for any template the file leaves blank.
func LoadTemplates(path string, loc *time.Location) (*Templates, error) {
	var f TemplateFile
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("failed to load reminder templates: %w", err)
		}
	}
	return NewTemplates(f.Reminder.Subject, f.Reminder.Body, loc)
}

// NewTemplates parses the given subject and body.  Empty strings select
// the defaults.
func NewTemplates(subject, body string, loc *time.Location) (*Templates, error) {
	if strings.TrimSpace(subject) == "" {
		subject = defaultSubject
	}
	if strings.TrimSpace(body) == "" {
		body = defaultBody
	}
	if loc == nil {
		loc = time.UTC
	}
	st, err := template.New("subject").Option("missingkey=error").Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	bt, err := template.New("body").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return &Templates{subject: st, body: bt, loc: loc}, nil
}

// RenderReminder produces the subject and body for r.
func (t *Templates) RenderReminder(r model.DueReminder) (string, string, error) {
	data := reminderData{
		Name:          r.DisplayName,
		Email:         r.Email,
		ReservationID: r.ID,
		UnitID:        r.UnitID,
		ConsoleType:   r.ConsoleTypeName,
		Date:          r.Date,
		TimeSlot:      r.TimeSlot,
		StartsAt:      r.StartsAt.In(t.loc).Format("Mon 02 Jan 2006 15:04 MST"),
		HoursBefore:   r.ReminderHoursBefore,
	}
	if data.Name == "" {
		data.Name = r.Email
	}
	if data.ConsoleType == "" {
		data.ConsoleType = "console"
	}
	if games := r.Games(); len(games) > 0 {
		parts := make([]string, len(games))
		for i, g := range games {
			parts[i] = fmt.Sprintf("#%d", g)
		}
		data.Games = strings.Join(parts, ", ")
	}

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}
