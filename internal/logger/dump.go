package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// The dump writer records full model request/response transcripts to a
// dedicated sink, separate from operational logs. Disabled until a writer is
// installed.

var (
	dumpMu  sync.Mutex
	dumpLog *log.Logger
)

func SetDumpWriter(w io.Writer) {
	dumpMu.Lock()
	defer dumpMu.Unlock()
	if w == nil {
		dumpLog = nil
		return
	}
	dumpLog = log.New(w, "", log.LstdFlags)
}

type dumpSection struct {
	Title string
	Body  string
}

func writeDump(kind, model, runID string, sections []dumpSection) {
	dumpMu.Lock()
	sink := dumpLog
	dumpMu.Unlock()
	if sink == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[MODEL]")
	if kind != "" {
		b.WriteString("[")
		b.WriteString(kind)
		b.WriteString("]")
	}
	if model != "" {
		b.WriteString("[")
		b.WriteString(model)
		b.WriteString("]")
	}
	if runID != "" {
		b.WriteString("[run=")
		b.WriteString(runID)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	sink.Print(b.String())
}

func LogModelRequest(model, runID, prompt string) {
	writeDump("REQUEST", model, runID, []dumpSection{
		{Title: "PROMPT", Body: prompt},
	})
}

func LogModelResponse(model, runID, output string) {
	writeDump("RESPONSE", model, runID, []dumpSection{
		{Title: "OUTPUT", Body: output},
	})
}

func LogModelFailure(model, runID, class, message string) {
	writeDump("FAILURE", model, runID, []dumpSection{
		{Title: "CLASS", Body: class},
		{Title: "MESSAGE", Body: message},
	})
}
