package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nodeboard/config"
)

func TestLogFileNameForDate(t *testing.T) {
	when := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if got := logFileNameForDate(when); got != "nodeboard-22-Jan-2026.log" {
		t.Fatalf("expected log filename nodeboard-22-Jan-2026.log, got %q", got)
	}
}

func TestParseLogFileDate(t *testing.T) {
	parsed, ok := parseLogFileDate("nodeboard-22-Jan-2026.log")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Year() != 2026 || parsed.Month() != time.January || parsed.Day() != 22 {
		t.Fatalf("unexpected parsed date: %s", parsed.Format(time.RFC3339))
	}
	for _, name := range []string{"notes.txt", "22-Jan-2026.log", "nodeboard-latest.log"} {
		if _, ok := parseLogFileDate(name); ok {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"nodeboard-20-Jan-2026.log",
		"nodeboard-21-Jan-2026.log",
		"nodeboard-22-Jan-2026.log",
		"20-Jan-2026.log",
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	now := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if err := cleanupOldLogs(dir, now, 2); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nodeboard-20-Jan-2026.log")); !os.IsNotExist(err) {
		t.Fatalf("expected expired log to be removed, stat err=%v", err)
	}
	for _, name := range []string{"nodeboard-21-Jan-2026.log", "nodeboard-22-Jan-2026.log", "20-Jan-2026.log", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestDailyFileSinkRollsOverByDate(t *testing.T) {
	dir := t.TempDir()
	sink, err := newDailyFileSink(dir, 1)
	if err != nil {
		t.Fatalf("newDailyFileSink: %v", err)
	}
	defer sink.Close()

	day1 := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	sink.WriteLine("first", day1)
	sink.WriteLine("second", day2)

	if _, err := os.Stat(filepath.Join(dir, "nodeboard-22-Jan-2026.log")); !os.IsNotExist(err) {
		t.Fatalf("expected previous day to be pruned with retention 1, stat err=%v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "nodeboard-23-Jan-2026.log"))
	if err != nil {
		t.Fatalf("read current log: %v", err)
	}
	if got := string(data); got != "2026/01/23 12:00:00 second\n" {
		t.Fatalf("unexpected log contents %q", got)
	}
}

func TestLogFanoutSplitsLines(t *testing.T) {
	var console bytes.Buffer
	fanout := &logFanout{}
	fanout.SetConsoleSink(&console, false)
	logger := log.New(fanout, "", 0)

	logger.Print("Snapshot: loaded 2 peers")
	fanout.Write([]byte("partial "))
	if strings.Contains(console.String(), "partial") {
		t.Fatalf("expected partial line to be buffered")
	}
	fanout.Write([]byte("line\r\nnext\n"))

	want := "Snapshot: loaded 2 peers\npartial line\nnext\n"
	if got := console.String(); got != want {
		t.Fatalf("unexpected console output %q", got)
	}

	console.Reset()
	fanout.Write(bytes.Repeat([]byte("x"), maxLogBufferBytes+1))
	if got := console.Len(); got != maxLogBufferBytes+2 {
		t.Fatalf("expected oversized partial line to be flushed, got %d bytes", got)
	}
}

func TestSetupLoggingWritesFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, Dir: dir, RetentionDays: 3}, &console)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	fanout.Write([]byte("Projector: filter applied\n"))
	if err := fanout.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.HasSuffix(console.String(), " Projector: filter applied\n") {
		t.Fatalf("expected timestamped console line, got %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, logFileNameForDate(time.Now())))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "Projector: filter applied") {
		t.Fatalf("expected line in log file, got %q", data)
	}

	disabled, err := setupLogging(config.LoggingConfig{}, &console)
	if err != nil || disabled.file != nil {
		t.Fatalf("expected disabled logging to skip file sink, err=%v", err)
	}
}

func TestLogFanoutConsoleExcludeKeepsFileLines(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{
		Enabled:        true,
		Dir:            dir,
		RetentionDays:  1,
		ConsoleExclude: []string{" snapshot ", "METRICS"},
	}, &console)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	fanout.SetConsoleSink(&console, false)
	logger := log.New(fanout, "", 0)
	logger.Print("Snapshot: loaded 2 peers")
	logger.Print("Metrics: serving http://127.0.0.1:9090/metrics")
	logger.Print("UI: tview ready")
	logger.Print("plain message: with colon")
	if err := fanout.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := console.String(); got != "UI: tview ready\nplain message: with colon\n" {
		t.Fatalf("unexpected console output %q", got)
	}
	data, err := os.ReadFile(filepath.Join(dir, logFileNameForDate(time.Now())))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"Snapshot: loaded 2 peers", "Metrics: serving", "UI: tview ready"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in log file, got %q", want, data)
		}
	}
}

func TestLogSubsystem(t *testing.T) {
	cases := map[string]string{
		"Snapshot: loaded":          "snapshot",
		"UI: ready":                 "ui",
		"plain message: with colon": "",
		": empty":                   "",
		"no colon":                  "",
	}
	for line, want := range cases {
		if got := logSubsystem(line); got != want {
			t.Fatalf("logSubsystem(%q) = %q, want %q", line, got, want)
		}
	}
}
