package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/guide"
	"github.com/agutierrezreginodev/potencia-agenda/internal/runtime"
)

const (
	runtimeCloseTimeout = 10 * time.Second

	outputMarkdown = "markdown"
	outputJSON     = "json"
	outputYAML     = "yaml"
	outputTable    = "table"
)

// DefaultActor is the audit user_id of CLI generations.
const DefaultActor = "cli"

// generateResult is the structured form of a generation, for json and yaml output.
type generateResult struct {
	Outcome          string        `json:"outcome" yaml:"outcome"`
	Guide            *domain.Guide `json:"guide,omitempty" yaml:"guide,omitempty"`
	Message          string        `json:"message,omitempty" yaml:"message,omitempty"`
	Model            string        `json:"model" yaml:"model"`
	PromptTokens     int           `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens" yaml:"completion_tokens"`
	LatencyMs        int64         `json:"latency_ms" yaml:"latency_ms"`
}

func newGenerateCommand(open func(*cobra.Command) (*runtime.App, error), stdin io.Reader) *cobra.Command {
	var (
		providerName string
		output       string
		actor        string
	)

	cmd := &cobra.Command{
		Use:   "generate [client request]",
		Short: "Generate an implementation guide",
		Long:  "Generate an implementation guide for a client request. With no argument, or \"-\", the request is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputMarkdown, outputJSON, outputYAML); err != nil {
				return err
			}
			text, err := requestText(args, stdin)
			if err != nil {
				return err
			}

			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			out := app.Service().Generate(cmd.Context(), domain.GenerationRequest{
				ClientText: text,
				Provider:   providerName,
				ActorID:    actor,
			})
			return writeOutcome(cmd.OutOrStdout(), out, output)
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Provider variant (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", outputMarkdown, "Output format: markdown, json or yaml")
	cmd.Flags().StringVar(&actor, "actor", DefaultActor, "User ID recorded in the usage log")
	return cmd
}

func requestText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func writeOutcome(w io.Writer, out domain.Outcome, format string) error {
	switch o := out.(type) {
	case *domain.Failure:
		if o.Err != nil {
			return o.Err
		}
		return errors.New(o.Message())
	case *domain.OutOfScope:
		if format == outputMarkdown {
			_, err := fmt.Fprintln(w, o.Message)
			return err
		}
		return encode(w, format, generateResult{
			Outcome:          string(o.Kind()),
			Message:          o.Message,
			Model:            o.ModelUsed,
			PromptTokens:     o.PromptTokens,
			CompletionTokens: o.CompletionTokens,
			LatencyMs:        o.LatencyMs,
		})
	case *domain.Success:
		if format == outputMarkdown {
			_, err := io.WriteString(w, guide.Render(o.Guide))
			return err
		}
		return encode(w, format, generateResult{
			Outcome:          string(o.Kind()),
			Guide:            o.Guide,
			Model:            o.ModelUsed,
			PromptTokens:     o.PromptTokens,
			CompletionTokens: o.CompletionTokens,
			LatencyMs:        o.LatencyMs,
		})
	default:
		return fmt.Errorf("unexpected outcome %T", out)
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func checkOutput(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported output %q (want one of %s)", format, strings.Join(allowed, ", "))
}
