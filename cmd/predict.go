package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/prophecy-cli/internal/ai"
	"github.com/KaramelBytes/prophecy-cli/internal/credentials"
	"github.com/KaramelBytes/prophecy-cli/internal/logger"
	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/report"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

var (
	predLocation    string
	predSqFt        float64
	predBedrooms    int
	predBathrooms   float64
	predYearBuilt   int
	predCondition   int
	predType        string
	predProvider    string
	predModel       string
	predAPIKey      string
	predOllamaHost  string
	predComparables int
	predCurrency    string
	predMaxTokens   int
	predTemperature float64
	predDryRun      bool
	predJSON        bool
	predOutput      string
	predFormat      string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Value a property with an AI estimate and a regression cross-check",
	Example: `  prophecy predict --location "Bangalore, KA" --sqft 1200 --bedrooms 3 --bathrooms 2
  prophecy predict --location "Austin, TX" --sqft 1850 --type "Independent House" --currency USD
  prophecy predict --sqft 1400 --condition 5 --type villa --dry-run
  prophecy predict --provider ollama --model qwen2.5:7b-instruct --output report.md`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	d := valuation.DefaultHouse()
	f := predictCmd.Flags()
	f.StringVar(&predLocation, "location", d.Location, "city or neighbourhood of the property")
	f.Float64Var(&predSqFt, "sqft", d.SqFt, "size of the property in square feet")
	f.IntVar(&predBedrooms, "bedrooms", d.Bedrooms, "number of bedrooms")
	f.Float64Var(&predBathrooms, "bathrooms", d.Bathrooms, "number of bathrooms")
	f.IntVar(&predYearBuilt, "year-built", d.YearBuilt, "year the property was built")
	f.IntVar(&predCondition, "condition", d.Condition, "condition from 1 (poor) to 5 (excellent)")
	f.StringVar(&predType, "type", string(d.PropertyType), "property type: Apartment, Independent House or Villa")
	f.StringVar(&predProvider, "provider", "", "AI provider: openrouter (default) or ollama")
	f.StringVar(&predModel, "model", "", "model id (defaults to config default_model)")
	f.StringVar(&predAPIKey, "api-key", "", "API key for this run (overrides config and environment)")
	f.StringVar(&predOllamaHost, "ollama-host", "", "Ollama base URL (default http://127.0.0.1:11434)")
	f.IntVar(&predComparables, "comparables", 0, "number of comparable sales to request (defaults to config)")
	f.StringVar(&predCurrency, "currency", "", "price currency code, e.g. INR or USD (defaults to config)")
	f.IntVar(&predMaxTokens, "max-tokens", 0, "max completion tokens (defaults to config)")
	f.Float64Var(&predTemperature, "temperature", -1, "sampling temperature (defaults to config)")
	f.BoolVar(&predDryRun, "dry-run", false, "print the prompt and a cost estimate without calling the model")
	f.BoolVar(&predJSON, "json", false, "print the prediction as JSON (same as --format json)")
	f.StringVarP(&predOutput, "output", "o", "", "also write the report to this file")
	f.StringVar(&predFormat, "format", "", "report format: text, markdown or json (default text, or inferred from --output)")
}

func houseFromFlags() (valuation.HouseInput, error) {
	pt, err := valuation.ParsePropertyType(predType)
	if err != nil {
		return valuation.HouseInput{}, err
	}
	h := valuation.HouseInput{
		Location:     strings.TrimSpace(predLocation),
		SqFt:         predSqFt,
		Bedrooms:     predBedrooms,
		Bathrooms:    predBathrooms,
		YearBuilt:    predYearBuilt,
		Condition:    predCondition,
		PropertyType: pt,
	}
	return h, h.Validate()
}

func valuationOptions(provider, model string) valuation.Options {
	o := valuation.Options{
		Provider:    provider,
		Model:       model,
		Comparables: predComparables,
		Currency:    predCurrency,
		MaxTokens:   predMaxTokens,
		Temperature: predTemperature,
	}
	if cfg != nil {
		if o.Comparables <= 0 {
			o.Comparables = cfg.ComparablesCount
		}
		if o.Currency == "" {
			o.Currency = cfg.Currency
		}
		if o.MaxTokens <= 0 {
			o.MaxTokens = cfg.MaxTokens
		}
		if o.Temperature < 0 {
			o.Temperature = cfg.Temperature
		}
	}
	if o.Temperature < 0 {
		o.Temperature = 0
	}
	return o
}

// outputFormats picks the stdout format and the file format. An explicit
// --format (or --json) wins for both; otherwise the file format follows the
// output extension.
func outputFormats(flagFormat string, jsonFlag bool, output string) (report.Format, report.Format, error) {
	if jsonFlag {
		return report.JSON, report.JSON, nil
	}
	if flagFormat != "" {
		f, err := report.ParseFormat(flagFormat)
		return f, f, err
	}
	return report.Text, report.FormatFromPath(output, report.Text), nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	h, err := houseFromFlags()
	if err != nil {
		return err
	}
	stdoutFmt, fileFmt, err := outputFormats(predFormat, predJSON, predOutput)
	if err != nil {
		return err
	}

	provider := selectProvider(cfg, predProvider)
	model := selectModel(cfg, predModel, provider)
	opts := valuationOptions(provider, model)

	if predDryRun {
		svc := valuation.NewService(nil, opts, *logger.L())
		prompt, err := svc.PromptPreview(h)
		if err != nil {
			return err
		}
		printDryRun(cmd, prompt, svc.Options())
		return nil
	}

	rt, _, cred, err := buildRuntime(cfg, runtimeOptions{
		ProviderFlag: predProvider,
		APIKey:       predAPIKey,
		OllamaHost:   predOllamaHost,
	}, os.Getenv)
	if err != nil {
		return err
	}
	if cred.Source != "" {
		logger.L().Debug().Str("source", cred.Source).Str("key", cred.Masked()).Msg("using API key")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc := valuation.NewService(rt, opts, *logger.L())
	p, err := svc.Predict(ctx, h)
	if err != nil {
		return explainPredictError(err, cred)
	}

	content, err := report.RenderValuation(p, stdoutFmt)
	if err != nil {
		return err
	}
	fmt.Fprint(out, content)

	if predOutput != "" {
		if fileFmt != stdoutFmt {
			if content, err = report.RenderValuation(p, fileFmt); err != nil {
				return err
			}
		}
		if err := report.Write(predOutput, []byte(content)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved report to %s\n", predOutput)
	}
	return nil
}

func printDryRun(cmd *cobra.Command, prompt string, o valuation.Options) {
	out := cmd.OutOrStdout()
	promptTokens := ai.EstimateTokens(prompt)
	// Each comparable is roughly a dozen tokens of JSON plus the analysis block.
	completionTokens := o.Comparables*12 + 250
	fmt.Fprintln(out, "--dry-run: the following prompt would be sent --")
	fmt.Fprintln(out, prompt)
	fmt.Fprintf(out, "Model: %s (%s)\n", o.Model, o.Provider)
	fmt.Fprintf(out, "Estimated tokens: prompt ~%d, completion ~%d\n", promptTokens, completionTokens)
	if cost, ok := ai.EstimateCostUSD(o.Model, promptTokens, completionTokens); ok {
		fmt.Fprintf(out, "Estimated cost: ~$%.4f\n", cost)
	} else {
		fmt.Fprintln(out, "Estimated cost: unknown (model not in catalog)")
	}
}

// userError shows a friendly message while keeping the cause matchable.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func explainPredictError(err error, cred credentials.Credential) error {
	switch {
	case errors.Is(err, regression.ErrInvalidInput), errors.Is(err, regression.ErrDegenerateInput):
		return &userError{msg: "the AI returned comparables that cannot be fitted: " + regression.UserMessage(err), err: err}
	case ai.IsAuth(err) && cred.Key != "":
		return credentials.Rejected(cred, err)
	}
	return err
}
