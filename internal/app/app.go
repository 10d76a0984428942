package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobrunner/internal/common"
	"github.com/ternarybob/jobrunner/internal/fetch"
	"github.com/ternarybob/jobrunner/internal/fetchlimit"
	"github.com/ternarybob/jobrunner/internal/githubsync"
	"github.com/ternarybob/jobrunner/internal/ids"
	"github.com/ternarybob/jobrunner/internal/mailnotify"
	"github.com/ternarybob/jobrunner/internal/pdfexport"
	"github.com/ternarybob/jobrunner/internal/report"
	"github.com/ternarybob/jobrunner/internal/store"
	"github.com/ternarybob/jobrunner/internal/summarize"
	"github.com/ternarybob/jobrunner/pkg/task"
)

// Collaborator is satisfied by anything that wants to observe job
// scheduling and receive panics — internal/broadcast.EventBroadcaster
// implements both halves.
type Collaborator interface {
	task.Profiler
	task.PanicLogger
}

// resultBroadcaster is implemented by a Collaborator that can additionally
// push completed RunResults to a live subscriber feed (EventBroadcaster
// does); checked with a type assertion since it's optional.
type resultBroadcaster interface {
	BroadcastResult(interface{})
}

// App wires together every domain-stack component named in
// SPEC_FULL.md §3 into one TaskSystem pipeline: fetch pages, sync
// GitHub issues, compose and render a report, export it to PDF,
// summarize it, check a notification mailbox, and persist the frame's
// results — all scheduled by the generic task/job core in pkg/task.
type App struct {
	logger arbor.ILogger
	config *common.Config

	jobs   *task.JobSystem
	tasks  *task.TaskSystem
	ctx    *task.Context
	result *store.ResultStore

	framesMu sync.Mutex
	frames   int
}

// New constructs and wires an App. collab may be nil, in which case a
// no-op Profiler/PanicLogger is used.
func New(config *common.Config, logger arbor.ILogger, collab Collaborator) (*App, error) {
	resultStore, err := store.Open(config.Storage.BadgerPath, config.Storage.ResetOnStartup, logger)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	jobs := task.NewJobSystem()
	var profiler task.Profiler = task.NoopProfiler{}
	var panicLogger task.PanicLogger
	if collab != nil {
		profiler = collab
		panicLogger = collab
	}
	if !jobs.Init(config.Scheduler.Workers, profiler, panicLogger) {
		return nil, fmt.Errorf("failed to start job system workers")
	}

	ctx := task.NewContext()
	task.SetContext(ctx, &FetchedPages{})
	task.SetContext(ctx, &IssueList{})
	task.SetContext(ctx, &ComposedReport{})
	task.SetContext(ctx, &RenderedHTML{})
	task.SetContext(ctx, &ExportedPDF{})
	task.SetContext(ctx, &Summary{})
	task.SetContext(ctx, &MailDigest{})
	task.SetContext(ctx, &FrameStamp{})

	tasks := task.NewTaskSystem(jobs, ctx)

	a := &App{logger: logger, config: config, jobs: jobs, tasks: tasks, ctx: ctx, result: resultStore}
	a.registerTasks(collab)
	return a, nil
}

func (a *App) registerTasks(collab Collaborator) {
	fetchClient := fetch.New(10 * time.Second)
	limiter := fetchlimit.New(a.config.Fetch.RequestsPerSecond, a.config.Fetch.Burst)
	ghClient := githubsync.New(context.Background(), "")

	var summarizer *summarize.Summarizer
	if a.config.Environment == "production" {
		summarizer = summarize.NewAnthropic("")
	}

	// stamp: first task registered; its FrameStamp write orders it before
	// persist_results, which reads the stamp.
	stampPerm := task.NewPermission()
	task.AddWrite[FrameStamp](stampPerm)
	a.tasks.AddTask("stamp_frame", stampPerm, func(ctx *task.Context, w *task.Work) {
		a.framesMu.Lock()
		a.frames++
		n := a.frames
		a.framesMu.Unlock()
		*task.MustWrite[FrameStamp](ctx) = FrameStamp{Frame: n, At: time.Now()}
	})

	fetchPerm := task.NewPermission()
	task.AddWrite[FetchedPages](fetchPerm)
	a.tasks.AddTask("fetch_pages", fetchPerm, func(ctx *task.Context, w *task.Work) {
		fetched := task.MustWrite[FetchedPages](ctx)
		fetched.Pages = fetched.Pages[:0]

		for _, url := range a.config.Fetch.URLs {
			if err := limiter.Wait(context.Background()); err != nil {
				a.logger.Warn().Err(err).Str("url", url).Msg("fetch rate limiter wait failed")
				continue
			}
			page, err := fetchClient.Fetch(context.Background(), url)
			if err != nil {
				a.logger.Warn().Err(err).Str("url", url).Msg("page fetch failed")
				continue
			}
			fetched.Pages = append(fetched.Pages, page)
		}
	})

	issuesPerm := task.NewPermission()
	task.AddWrite[IssueList](issuesPerm)
	a.tasks.AddTask("sync_issues", issuesPerm, func(ctx *task.Context, w *task.Work) {
		issues, err := ghClient.ListOpenIssues(context.Background(), "ternarybob", "quaero")
		if err != nil {
			a.logger.Warn().Err(err).Msg("github issue sync failed")
			return
		}
		task.MustWrite[IssueList](ctx).Issues = issues
	})

	composePerm := task.NewPermission()
	task.AddRead[FetchedPages](composePerm)
	task.AddRead[IssueList](composePerm)
	task.AddWrite[ComposedReport](composePerm)
	a.tasks.AddTask("compose_report", composePerm, func(ctx *task.Context, w *task.Work) {
		pages := task.MustRead[FetchedPages](ctx)
		issues := task.MustRead[IssueList](ctx)

		sections := map[string]string{}
		var order []string
		for _, p := range pages.Pages {
			key := p.Title
			if key == "" {
				key = p.URL
			}
			sections[key] = p.Markdown
			order = append(order, key)
		}

		issueLines := "No open issues."
		if len(issues.Issues) > 0 {
			issueLines = ""
			for _, i := range issues.Issues {
				issueLines += fmt.Sprintf("- #%d %s\n", i.Number, i.Title)
			}
		}
		sections["Open Issues"] = issueLines
		order = append(order, "Open Issues")

		task.MustWrite[ComposedReport](ctx).Markdown = report.Compose("Scheduler Run Report", sections, order)
	})

	renderPerm := task.NewPermission()
	task.AddRead[ComposedReport](renderPerm)
	task.AddWrite[RenderedHTML](renderPerm)
	a.tasks.AddTask("render_report", renderPerm, func(ctx *task.Context, w *task.Work) {
		md := task.MustRead[ComposedReport](ctx).Markdown
		html, err := report.Render(md)
		if err != nil {
			a.logger.Warn().Err(err).Msg("report render failed")
			return
		}
		task.MustWrite[RenderedHTML](ctx).HTML = html
	})

	exportPerm := task.NewPermission()
	task.AddRead[ComposedReport](exportPerm)
	task.AddWrite[ExportedPDF](exportPerm)
	a.tasks.AddTask("export_pdf", exportPerm, func(ctx *task.Context, w *task.Work) {
		gen := task.Scratch[ids.Generator](w)
		md := task.MustRead[ComposedReport](ctx).Markdown
		outPath := filepath.Join(a.config.Storage.BadgerPath, "reports", gen.Next()+".pdf")
		if err := pdfexport.Export("Scheduler Run Report", pdfexport.SplitParagraphs(md), outPath); err != nil {
			a.logger.Warn().Err(err).Msg("pdf export failed")
			return
		}
		task.MustWrite[ExportedPDF](ctx).Path = outPath
	})

	summaryPerm := task.NewPermission()
	task.AddRead[ComposedReport](summaryPerm)
	task.AddWrite[Summary](summaryPerm)
	a.tasks.AddTask("summarize_report", summaryPerm, func(ctx *task.Context, w *task.Work) {
		if summarizer == nil {
			task.MustWrite[Summary](ctx).Text = ""
			return
		}
		md := task.MustRead[ComposedReport](ctx).Markdown
		text, err := summarizer.Summarize(context.Background(), md)
		if err != nil {
			a.logger.Warn().Err(err).Msg("summarize failed")
			return
		}
		task.MustWrite[Summary](ctx).Text = text
	})

	notifyPerm := task.NewPermission()
	task.AddWrite[MailDigest](notifyPerm)
	a.tasks.AddTask("notify_digest", notifyPerm, func(ctx *task.Context, w *task.Work) {
		if a.config.Environment != "production" {
			return
		}
		session := task.Scratch[mailnotify.Session](w)
		if err := session.Connect("imap.example.com:993", "", ""); err != nil {
			a.logger.Warn().Err(err).Msg("mail session connect failed")
			return
		}
		subjects, err := session.UnseenSubjects("INBOX")
		if err != nil {
			a.logger.Warn().Err(err).Msg("mail digest fetch failed")
			return
		}
		task.MustWrite[MailDigest](ctx).Subjects = subjects
	})

	persistPerm := task.NewPermission()
	task.AddRead[FrameStamp](persistPerm)
	task.AddRead[ExportedPDF](persistPerm)
	task.AddRead[Summary](persistPerm)
	task.AddRead[MailDigest](persistPerm)
	persistTask := a.tasks.AddTask("persist_results", persistPerm, func(ctx *task.Context, w *task.Work) {
		gen := task.Scratch[ids.Generator](w)
		stamp := task.MustRead[FrameStamp](ctx)
		pdf := task.MustRead[ExportedPDF](ctx)
		summary := task.MustRead[Summary](ctx)

		result := &store.RunResult{
			ID:        gen.Next(),
			Frame:     stamp.Frame,
			PDFPath:   pdf.Path,
			Summary:   summary.Text,
			CreatedAt: stamp.At,
		}
		if err := a.result.Save(result); err != nil {
			a.logger.Warn().Err(err).Msg("persist result failed")
			return
		}
		if collab != nil {
			if b, ok := collab.(resultBroadcaster); ok {
				b.BroadcastResult(result)
			}
		}

		if a.config.Scheduler.MaxFrames > 0 && stamp.Frame >= a.config.Scheduler.MaxFrames {
			task.MustWrite[task.TaskSystemData](ctx).IsLoop = false
		}
	})
	_ = persistTask
}

// RunOnce drives exactly one TaskSystem frame.
func (a *App) RunOnce() {
	a.tasks.RunOnce()
}

// Run drives TaskSystem frames until TaskSystemData.IsLoop is cleared
// (by persist_results, once MaxFrames is reached).
func (a *App) Run() {
	a.tasks.Run()
}

// FramesRun implements mcpstats.StatsProvider.
func (a *App) FramesRun() int {
	a.framesMu.Lock()
	defer a.framesMu.Unlock()
	return a.frames
}

// ResultsStored implements mcpstats.StatsProvider.
func (a *App) ResultsStored() int {
	n, err := a.result.Count()
	if err != nil {
		return 0
	}
	return n
}

// Close releases the JobSystem worker pool and the result store.
func (a *App) Close() error {
	a.jobs.Quit()
	return a.result.Close()
}
