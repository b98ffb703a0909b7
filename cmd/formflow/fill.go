package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/datasource"
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/template"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func newFillCommand() *cobra.Command {
	var proxyURL string

	cmd := &cobra.Command{
		Use:   "fill <descriptor>",
		Short: "Run a descriptor interactively, honoring visibility and validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDescriptor(cmd, args[0])
			if err != nil {
				return err
			}
			d, err = formflow.Resolve(d)
			if err != nil {
				return err
			}

			engine := template.New()
			loader := datasource.New(
				datasource.WithEvaluator(engine),
				datasource.WithProxyURL(proxyURL),
			)

			runner := &fillRunner{cmd: cmd, engine: engine, loader: loader}
			values, err := runner.run(d)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(values, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&proxyURL, "proxy-url", "", "trusted proxy endpoint for data-source loads")
	return cmd
}

type fillRunner struct {
	cmd    *cobra.Command
	engine *template.Engine
	loader *datasource.Loader
}

func (r *fillRunner) run(d formflow.GlobalFormDescriptor) (map[string]any, error) {
	values := descriptor.DefaultValues(d, r.engine, descriptor.FormContext{})

	for _, block := range d.Blocks {
		ctx := formContext(values)
		if r.engine.Hidden(block.Status, ctx) {
			continue
		}
		if block.Title != "" {
			fmt.Fprintf(r.cmd.OutOrStdout(), "\n%s\n", block.Title)
		}
		for _, field := range block.Fields {
			ctx = formContext(values)
			if field.Type == descriptor.FieldTypeButton || r.engine.Hidden(field.Status, ctx) {
				continue
			}
			if r.engine.Disabled(field.Status, ctx) || r.engine.Readonly(field.Status, ctx) {
				continue
			}

			value, err := r.prompt(field, ctx)
			if err != nil {
				return nil, err
			}
			values[field.ID] = value
		}
	}
	return values, nil
}

func (r *fillRunner) prompt(field descriptor.FieldDescriptor, ctx descriptor.FormContext) (any, error) {
	validate := validation.Translate(field.Validation, field.Type)
	asSurveyValidator := func(ans any) error {
		return validate(normalizeAnswer(ans))
	}

	switch field.Type {
	case descriptor.FieldTypeCheckbox:
		var out bool
		prompt := &survey.Confirm{Message: field.Label, Help: field.Description}
		if err := survey.AskOne(prompt, &out); err != nil {
			return nil, err
		}
		if err := validate(out); err != nil {
			return nil, err
		}
		return out, nil

	case descriptor.FieldTypeDropdown, descriptor.FieldTypeRadio, descriptor.FieldTypeAutocomplete:
		items, err := r.loader.Options(r.cmd.Context(), field, ctx)
		if err != nil {
			fmt.Fprintf(r.cmd.ErrOrStderr(), "options for %s unavailable: %v\n", field.ID, err)
		}
		if len(items) == 0 {
			return r.promptText(field, asSurveyValidator)
		}

		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, item.Label)
		}
		var index int
		prompt := &survey.Select{Message: field.Label, Options: labels, Help: field.Description}
		if err := survey.AskOne(prompt, &index); err != nil {
			return nil, err
		}
		return items[index].Value, nil

	case descriptor.FieldTypeNumber:
		raw, err := r.promptText(field, func(ans any) error {
			s, _ := ans.(string)
			if s == "" {
				return validate(nil)
			}
			n, convErr := strconv.ParseFloat(s, 64)
			if convErr != nil {
				return fmt.Errorf("%q is not a number", s)
			}
			return validate(n)
		})
		if err != nil {
			return nil, err
		}
		if raw == "" {
			return nil, nil
		}
		return strconv.ParseFloat(raw.(string), 64)

	default:
		return r.promptText(field, asSurveyValidator)
	}
}

func (r *fillRunner) promptText(field descriptor.FieldDescriptor, validator survey.Validator) (any, error) {
	var out string
	prompt := &survey.Input{Message: field.Label, Help: field.Description}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(validator)); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeAnswer(ans any) any {
	if s, ok := ans.(string); ok && s == "" {
		return nil
	}
	return ans
}

func formContext(values map[string]any) descriptor.FormContext {
	ctx := make(descriptor.FormContext, len(values)+1)
	for key, value := range values {
		ctx[key] = value
	}
	ctx["values"] = values
	return ctx
}
