package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"designagent/internal/designspec"
	"designagent/internal/event"
	"designagent/internal/gateway/app"
	"designagent/internal/pipeline"
)

var (
	labelStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelPhase  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	labelOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	var (
		b      designspec.Brief
		stream bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a design spec and write its artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd, map[string]string{
				"llm.provider": "provider",
				"llm.model":    "model",
			})
			if err != nil {
				return err
			}
			b = b.WithDefaults(cfg.Export.DefaultOutDir)
			if err := b.Validate(); err != nil {
				return err
			}
			comps, err := app.Build(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer comps.LLM.Close()
			return generate(cmd.Context(), cmd.OutOrStdout(), comps.Pipeline, b, stream)
		},
	}
	f := cmd.Flags()
	f.StringVar(&b.Purpose, "purpose", "Research copilot for a knowledge base", "what the product is for")
	f.StringVar(&b.Audience, "audience", "Analysts and PMs", "who uses it")
	f.StringVar(&b.Tone, "tone", "calm, precise, credible", "brand tone")
	f.StringVar(&b.Subject, "subject", "knowledge work", "subject domain")
	f.StringVar(&b.Brand, "brand", "#0EA5E9 as primary, #22C55E as success", "brand colors and notes")
	f.StringVar(&b.Constraints, "constraints", "dark+light themes, AA contrast, prefers shadcn", "design constraints")
	f.StringVar(&b.AIUseCases, "ai-use-cases", "RAG search, multi-agent tool use with citations", "AI features of the product")
	f.IntVar(&b.LatencyBudget, "latency-budget", 1800, "latency budget in milliseconds")
	f.StringVar(&b.NeedsCitations, "needs-citations", "true", "whether answers must cite sources")
	f.StringVar(&b.SafetyLevel, "safety-level", designspec.DefaultSafetyLevel, "strict, moderate or relaxed")
	f.StringVar(&b.TelemetryOptIn, "telemetry", designspec.DefaultTelemetryOptIn, "telemetry opt-in: on or off")
	f.StringVar(&b.OutDir, "out-dir", "", "artifact destination (default export.default_out_dir)")
	f.BoolVar(&stream, "stream", false, "print run events as they happen")
	f.String("provider", "", "llm provider: gemini, openai, groq or fake")
	f.String("model", "", "llm model id")
	return cmd
}

func generate(ctx context.Context, w io.Writer, p *pipeline.Orchestrator, b designspec.Brief, stream bool) error {
	var (
		res pipeline.Result
		err error
	)
	if stream {
		pr := &eventPrinter{w: w}
		res, err = p.Stream(ctx, b, pr)
		pr.endTokens()
	} else {
		res, err = p.Run(ctx, b)
	}
	if err != nil {
		return err
	}
	raw, err := designspec.Marshal(res.Spec)
	if err != nil {
		return err
	}
	keys, err := topLevelKeys(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Wrote files to:", res.OutDir)
	fmt.Fprintln(w, "Spec keys:", strings.Join(keys, ", "))
	return nil
}

// eventPrinter renders run events for a terminal. Token fragments are
// written raw and inline; every other event gets its own labelled line.
type eventPrinter struct {
	w        io.Writer
	inTokens bool
}

func (p *eventPrinter) Emit(_ context.Context, e event.Event) error {
	if e.Tag == event.Token {
		fmt.Fprint(p.w, e.Text)
		p.inTokens = true
		return nil
	}
	p.endTokens()
	switch e.Tag {
	case event.Status:
		fmt.Fprintln(p.w, labelStatus.Render("status"), e.Text)
	case event.Phase:
		fmt.Fprintln(p.w, labelPhase.Render("phase"), e.Text)
	case event.OpsPatch:
		fmt.Fprintln(p.w, labelStatus.Render("ops_patch"), e.Text)
	case event.Export:
		fmt.Fprintln(p.w, labelOK.Render("export"), e.OutDir)
	case event.Final:
		fmt.Fprintln(p.w, labelOK.Render("final"), fmt.Sprintf("%d bytes", len(e.Spec)))
	case event.Error:
		fmt.Fprintln(p.w, labelError.Render("error"), e.Err)
	}
	return nil
}

func (p *eventPrinter) endTokens() {
	if p.inTokens {
		fmt.Fprintln(p.w)
		p.inTokens = false
	}
}

// topLevelKeys lists the keys of a JSON object in document order.
func topLevelKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("spec is not a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
