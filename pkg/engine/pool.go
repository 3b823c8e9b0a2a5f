package engine

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// task is one unit of probe work: a single plugin applied to a single
// target (or, for auxiliary plugins, to a parameter list).
type task struct {
	target string
	plug   pluginRef
	params []string
}

type pluginRef struct {
	Code  string
	Name  string
	Group string
	Type  string
}

// pool executes tasks across a fixed set of worker goroutines with a
// progress line on the terminal.
type pool struct {
	threads   int
	run       func(*task)
	queue     chan *task
	wg        sync.WaitGroup
	done      int64
	hits      int64
	total     int
	startedAt time.Time
}

func newPool(threads int, run func(*task)) *pool {
	if threads < 1 {
		threads = 1
	}
	return &pool{
		threads: threads,
		run:     run,
		queue:   make(chan *task, threads*2),
	}
}

// start feeds tasks to the workers and blocks until they drain. An
// interrupt delivered while feeding or draining stops the run and returns
// ErrAborted; tasks already picked up are allowed to complete.
func (p *pool) start(tasks []*task, interrupt <-chan os.Signal) error {
	p.total = len(tasks)
	p.startedAt = time.Now()

	hideCursor()
	defer showCursor()

	for i := 0; i < p.threads; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	aborted := false
feed:
	for _, t := range tasks {
		select {
		case p.queue <- t:
		case <-interrupt:
			aborted = true
			break feed
		}
	}
	close(p.queue)

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-interrupt:
		aborted = true
		<-waited
	}

	clearLine()
	if aborted {
		return ErrAborted
	}
	return nil
}

func (p *pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(t)
		atomic.AddInt64(&p.done, 1)
		p.progress()
	}
}

// hit records one successful probe for the progress counters.
func (p *pool) hit() {
	atomic.AddInt64(&p.hits, 1)
}

// log prints a result line without disturbing the progress display.
func (p *pool) log(a ...any) {
	fmt.Printf("\r\033[2K%s\n", fmt.Sprint(a...))
}

func (p *pool) logf(format string, a ...any) {
	p.log(fmt.Sprintf(format, a...))
}

// progress redraws the in-place progress line with completion percentage,
// counters and an ETA estimate, truncated to the terminal width.
func (p *pool) progress() {
	done := atomic.LoadInt64(&p.done)
	hits := atomic.LoadInt64(&p.hits)

	pct := 0.0
	if p.total > 0 {
		pct = float64(done) / float64(p.total) * 100
	}
	eta := "--"
	if done > 0 && p.total > 0 {
		elapsed := time.Since(p.startedAt).Seconds()
		remaining := elapsed / float64(done) * float64(p.total-int(done))
		eta = formatSeconds(int(remaining))
	}

	s := fmt.Sprintf("%.2f%% - C: %d / %d - S: %d - ETA: %s", pct, done, p.total, hits, eta)
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		w := width - 3
		if w > 0 && len(s) >= w {
			s = s[:w] + "..."
		}
	}
	fmt.Print("\r\033[2K", s, "\r")
}

func formatSeconds(sec int) string {
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func hideCursor() { fmt.Print("\033[?25l") }
func showCursor() { fmt.Print("\033[?25h") }
func clearLine()  { fmt.Print("\r\033[2K") }
