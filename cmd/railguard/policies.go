package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railguard-ai/railguard/internal/config"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Inspect configured pipeline policies",
}

var policiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured policies and their steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		if len(cfg.Policies) == 0 {
			cmd.Println("No policies configured")
			return nil
		}

		for _, p := range cfg.Policies {
			cmd.Printf("%s (%s)\n", p.Name, p.Mode)
			for i, step := range p.Steps {
				line := fmt.Sprintf("  %d. %s", i+1, step.Guardrail)
				if step.OnPass != "" {
					line += fmt.Sprintf(" on_pass=%s", step.OnPass)
				}
				if step.OnFail != "" {
					line += fmt.Sprintf(" on_fail=%s", step.OnFail)
				}
				if step.PassData {
					line += " pass_data=true"
				}
				cmd.Println(line)
			}
		}
		return nil
	},
}

var policiesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		cmd.Printf("%s: OK (%d guardrails, %d policies)\n",
			configFile, len(cfg.Guardrails), len(cfg.Policies))
		return nil
	},
}

func init() {
	policiesCmd.AddCommand(policiesListCmd)
	policiesCmd.AddCommand(policiesValidateCmd)
}
