package app

import (
	"time"

	"github.com/ternarybob/jobrunner/internal/fetch"
	"github.com/ternarybob/jobrunner/internal/githubsync"
)

// The types below are the Context-resident resources tasks declare
// Permission against. Each one is a single struct instance shared for the
// lifetime of the TaskSystem and installed once via task.SetContext
// during wiring (spec.md §4.2); tasks never allocate their own copies.

// FetchedPages holds the outcome of the most recent fetch_pages frame.
type FetchedPages struct {
	Pages []*fetch.Page
}

// IssueList holds the outcome of the most recent sync_issues frame.
type IssueList struct {
	Issues []githubsync.Issue
}

// ComposedReport holds the Markdown report built from FetchedPages and
// IssueList.
type ComposedReport struct {
	Markdown string
}

// RenderedHTML holds the HTML rendering of ComposedReport.
type RenderedHTML struct {
	HTML string
}

// ExportedPDF holds the filesystem path of the most recently exported
// PDF report.
type ExportedPDF struct {
	Path string
}

// Summary holds the most recent AI-generated summary of the report.
type Summary struct {
	Text string
}

// MailDigest holds subjects of unseen notification-mailbox messages
// observed this frame.
type MailDigest struct {
	Subjects []string
}

// FrameStamp is written once per frame by stamp_frame; persist_results
// reads it after that write, giving the persist step a consistent
// timestamp/ordinal.
type FrameStamp struct {
	Frame int
	At    time.Time
}
