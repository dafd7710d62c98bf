package models

import (
	"strings"
	"time"
)

// ReportFields are the fields shared by lost and found reports.
type ReportFields struct {
	Title        string     `json:"title" validate:"required,notblank"`
	Description  string     `json:"description" validate:"required,notblank"`
	LocationText string     `json:"locationText" validate:"required,notblank"`
	CampusZone   Zone       `json:"campusZone,omitempty"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
	Tags         []string   `json:"tags" validate:"max=10,dive,notblank,max=32"`
	DocURLs      []string   `json:"docUrls" validate:"max=6,dive,notblank"`
}

// LostReport is filed by someone who lost an item.
type LostReport struct {
	ReportFields
}

// FoundReport is filed by someone who found an item. Custody records where
// the item is being held.
type FoundReport struct {
	ReportFields
	Custody string `json:"custody" validate:"max=120"`
}

// Report is either a LostReport or a FoundReport. The zero value is not valid;
// build one with NewLostReport or NewFoundReport.
type Report struct {
	kind    Status
	fields  ReportFields
	custody string
}

func NewLostReport(r LostReport) Report {
	return Report{kind: StatusLost, fields: r.ReportFields}
}

func NewFoundReport(r FoundReport) Report {
	return Report{kind: StatusFound, fields: r.ReportFields, custody: strings.TrimSpace(r.Custody)}
}

// Kind is the status a newly created item takes.
func (r Report) Kind() Status { return r.kind }
func (r Report) Title() string { return strings.TrimSpace(r.fields.Title) }
func (r Report) Description() string { return strings.TrimSpace(r.fields.Description) }
func (r Report) LocationText() string { return strings.TrimSpace(r.fields.LocationText) }
func (r Report) CampusZone() Zone { return r.fields.CampusZone }
func (r Report) LastSeenAt() *time.Time { return r.fields.LastSeenAt }
func (r Report) Custody() string { return r.custody }
func (r Report) Tags() []string { return cleanList(r.fields.Tags) }
func (r Report) DocURLs() []string { return cleanList(r.fields.DocURLs) }

// cleanList trims entries and drops blanks, keeping order and duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
