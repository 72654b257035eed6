package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/logcapture"
	"github.com/san-kum/expressfrac/internal/orchestrator"
)

func TestLogPanelIsBounded(t *testing.T) {
	m := New(orchestrator.New(threeSteps()), frac.Request{Model: "pkn"})
	for i := 0; i < maxLogLines+10; i++ {
		m.appendLog(logcapture.Line{Time: time.Unix(0, 0), Text: "line"})
	}
	if got := len(m.LogLines()); got != maxLogLines {
		t.Errorf("expected %d lines, got %d", maxLogLines, got)
	}
}

func TestStepViewClear(t *testing.T) {
	v := &stepView{}
	v.Render(2, fakeStep(0.3))
	if !v.ok || v.index != 2 {
		t.Fatalf("unexpected view %+v", v)
	}
	v.Clear()
	if v.ok {
		t.Error("expected cleared view")
	}
}

func TestThemeFallback(t *testing.T) {
	if GetTheme("nope").Name != ThemeOcean.Name {
		t.Error("expected ocean fallback")
	}
	m := New(orchestrator.New(threeSteps()), frac.Request{Model: "pkn"}, WithTheme("retro"))
	if m.theme.Name != "retro" {
		t.Errorf("expected retro, got %s", m.theme.Name)
	}
	if !strings.Contains(m.View(), "EXPRESSFRAC PKN") {
		t.Error("header missing from view")
	}
}
