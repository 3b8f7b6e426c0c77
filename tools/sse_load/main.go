// Command sse_load drives the sensor state stream with many concurrent
// readers. Each reader parses the SSE framing (id, event, data) instead of
// counting raw lines, so the summary attributes throughput to the sensor
// that produced it and reports the highest event index observed.
//
// With -resume-from set, every reader sends a Last-Event-ID header and the
// server replays its backlog to each of them, which is the expensive path
// worth measuring.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// stateEvent one parsed frame from the state stream.
type stateEvent struct {
	id   uint64
	kind string
	data []byte
}

// streamStats counters shared by every reader goroutine.
type streamStats struct {
	connected   int64
	connectErrs int64
	streamErrs  int64
	events      int64
	heartbeats  int64
	headIndex   uint64

	mu        sync.Mutex
	perSensor map[string]int64
}

func newStreamStats() *streamStats {
	return &streamStats{perSensor: make(map[string]int64)}
}

// record counts one state event against the sensor named in its payload.
func (s *streamStats) record(ev stateEvent) {
	atomic.AddInt64(&s.events, 1)
	s.advanceHead(ev.id)

	var payload struct {
		Name string `json:"name"`
	}
	sensor := "(unparsed)"
	if err := json.Unmarshal(ev.data, &payload); err == nil && payload.Name != "" {
		sensor = payload.Name
	}

	s.mu.Lock()
	s.perSensor[sensor]++
	s.mu.Unlock()
}

// advanceHead raises the head index unless another reader already saw a
// newer event.
func (s *streamStats) advanceHead(id uint64) {
	for {
		cur := atomic.LoadUint64(&s.headIndex)
		if id <= cur || atomic.CompareAndSwapUint64(&s.headIndex, cur, id) {
			return
		}
	}
}

// readStream consumes one connection until the context ends or the stream
// breaks. A frame is dispatched on its blank-line terminator; comment lines
// are the server's heartbeats.
func readStream(ctx context.Context, body io.Reader, stats *streamStats) error {
	reader := bufio.NewReader(body)

	var ev stateEvent
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if ev.kind == "state" && len(ev.data) > 0 {
				stats.record(ev)
			}
			ev = stateEvent{}
		case strings.HasPrefix(line, ":"):
			atomic.AddInt64(&stats.heartbeats, 1)
		case strings.HasPrefix(line, "id:"):
			if id, perr := strconv.ParseUint(strings.TrimSpace(line[len("id:"):]), 10, 64); perr == nil {
				ev.id = id
			}
		case strings.HasPrefix(line, "event:"):
			ev.kind = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			ev.data = append(ev.data, strings.TrimSpace(line[len("data:"):])...)
		}
	}
}

func main() {
	var (
		targetURL    string
		connections  int
		testDuration time.Duration
		rampUp       time.Duration
		resumeFrom   int64
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8126/states/stream", "state stream URL")
	flag.IntVar(&connections, "conns", 1000, "number of concurrent stream readers")
	flag.DurationVar(&testDuration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "spread connection starts across this window")
	flag.Int64Var(&resumeFrom, "resume-from", -1, "Last-Event-ID sent by every reader so the server replays the backlog (-1 disables)")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}
	if rampUp == 0 && connections > 100 {
		// 1s per 500 readers keeps the accept queue sane on the default listener
		rampUp = time.Duration(connections/500) * time.Second
		if rampUp < time.Second {
			rampUp = time.Second
		}
		log.Printf("using default ramp-up %s for %d readers", rampUp, connections)
	}

	log.Printf("starting stream load: url=%s readers=%d duration=%s ramp=%s resume_from=%d",
		targetURL, connections, testDuration, rampUp, resumeFrom)

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 100,
			MaxIdleConns:        connections + 100,
			MaxIdleConnsPerHost: connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		Timeout: 0, // streaming
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if testDuration > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, testDuration)
		defer timeoutCancel()
	}

	stats := newStreamStats()

	var wg sync.WaitGroup
	start := time.Now()

	var interval time.Duration
	if rampUp > 0 {
		interval = rampUp / time.Duration(connections)
	}

	for i := 0; i < connections; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			runReader(ctx, client, targetURL, resumeFrom, stats)
		}()
	}

	statusTicker := time.NewTicker(5 * time.Second)
	go func() {
		defer statusTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-statusTicker.C:
				log.Printf("status: connected=%d connect_errs=%d stream_errs=%d events=%d heartbeats=%d head_index=%d elapsed=%s",
					atomic.LoadInt64(&stats.connected),
					atomic.LoadInt64(&stats.connectErrs),
					atomic.LoadInt64(&stats.streamErrs),
					atomic.LoadInt64(&stats.events),
					atomic.LoadInt64(&stats.heartbeats),
					atomic.LoadUint64(&stats.headIndex),
					time.Since(start).Truncate(time.Second),
				)
			}
		}
	}()

	wg.Wait()
	cancel()

	printSummary(stats, time.Since(start))
}

// runReader opens one stream connection and consumes it until the stream or
// the context ends.
func runReader(ctx context.Context, client *http.Client, targetURL string, resumeFrom int64, stats *streamStats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	if resumeFrom >= 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(resumeFrom, 10))
	}

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}

	atomic.AddInt64(&stats.connected, 1)
	if err := readStream(ctx, resp.Body, stats); err != nil && ctx.Err() == nil {
		atomic.AddInt64(&stats.streamErrs, 1)
	}
}

func printSummary(stats *streamStats, elapsed time.Duration) {
	if elapsed == 0 {
		elapsed = time.Millisecond
	}
	events := atomic.LoadInt64(&stats.events)

	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d events=%d heartbeats=%d head_index=%d elapsed=%s events/s=%.2f\n",
		atomic.LoadInt64(&stats.connected),
		atomic.LoadInt64(&stats.connectErrs),
		atomic.LoadInt64(&stats.streamErrs),
		events,
		atomic.LoadInt64(&stats.heartbeats),
		atomic.LoadUint64(&stats.headIndex),
		elapsed.Truncate(time.Millisecond),
		float64(events)/elapsed.Seconds(),
	)

	stats.mu.Lock()
	defer stats.mu.Unlock()

	names := make([]string, 0, len(stats.perSensor))
	for name := range stats.perSensor {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-40s %d\n", name, stats.perSensor[name])
	}
}
