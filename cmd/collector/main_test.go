package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pockettcg/collector/collector/catalog"
)

func testStore() *catalog.Store {
	cards := []catalog.Card{
		{Set: "A1", Number: 1, Name: "Bulbasaur", RarityCode: "C", Symbol: "◊", Packs: []string{"Mewtwo"}, Types: []string{}},
		{Set: "A1", Number: 2, Name: "Ivysaur", RarityCode: "C", Symbol: "◊", Packs: []string{"Mewtwo"}, Types: []string{}},
		{Set: "A1", Number: 3, Name: "Moltres EX", RarityCode: "SR", Symbol: "☆☆", Packs: []string{"Pikachu"}, Types: []string{}},
	}
	sets := []catalog.Set{{Code: "A1", Name: "Genetic Apex"}}
	return catalog.NewStore(cards, sets, map[string]string{}, catalog.DefaultSpecialSetPolicy())
}

func TestPrintStatsIncludesRarityCompletion(t *testing.T) {
	var out strings.Builder
	printStats(&out, testStore(), map[string]int{"A1-1": 2, "A1-3": 1}, false)
	got := out.String()

	if !strings.Contains(got, "Rarities:") {
		t.Fatalf("output lacks rarity section:\n%s", got)
	}
	header := strings.Index(got, "Rarities:")
	cLine := strings.Index(got, "\n  C ")
	srLine := strings.Index(got, "\n  SR ")
	if cLine < header || srLine < header {
		t.Fatalf("rarity rows missing or before header:\n%s", got)
	}
	if cLine > srLine {
		t.Errorf("rarity rows not in ladder order (C before SR):\n%s", got)
	}
	if !strings.Contains(got, "1/2") {
		t.Errorf("common completion 1/2 missing:\n%s", got)
	}
	if !strings.Contains(got, "Sets:") || !strings.Contains(got, "Genetic Apex") {
		t.Errorf("set section missing:\n%s", got)
	}
}

type recordingHandler struct {
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestInstrumentCommandLogsRuns(t *testing.T) {
	h := &recordingHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(h))
	t.Cleanup(func() { slog.SetDefault(prev) })

	boom := errors.New("boom")
	cmd := &cobra.Command{
		Use:  "check",
		RunE: func(*cobra.Command, []string) error { return boom },
	}
	instrumentCommand(cmd)

	if err := cmd.RunE(cmd, nil); !errors.Is(err, boom) {
		t.Fatalf("wrapped RunE error = %v, want original", err)
	}
	if len(h.records) != 1 {
		t.Fatalf("got %d log records, want 1", len(h.records))
	}
	rec := h.records[0]
	if rec.Level != slog.LevelError {
		t.Errorf("level = %v, want error for failed command", rec.Level)
	}
	var name, typ string
	rec.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "name":
			name = a.Value.String()
		case "type":
			typ = a.Value.String()
		}
		return true
	})
	if typ != "cmd" || name != "check" {
		t.Errorf("attrs type=%q name=%q, want cmd/check", typ, name)
	}
}

func TestInstrumentCommandSkipsBareCommands(t *testing.T) {
	cmd := &cobra.Command{Use: "group"}
	instrumentCommand(cmd)
	if cmd.RunE != nil {
		t.Error("command without RunE should stay bare")
	}
}
