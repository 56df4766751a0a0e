// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shop-documents/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain the activity registry published to process modellers",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")

	root.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Write the registry from the workers compiled into this module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Build(time.Now())
			if err := registry.Validate(reg); err != nil {
				return err
			}
			if err := registry.SaveRegistry(reg, registryPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(reg.Activities), registryPath)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file and check it matches the workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validate(cmd.OutOrStdout(), registryPath)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the activities implemented by this module",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, a := range registry.Catalog() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-14s timeout=%s retries=%d errors=%s\n",
					a.TaskType, a.Category, a.Timeout, a.Retries, strings.Join(a.ErrorCodes, ","))
			}
		},
	})

	return root
}

func validate(w io.Writer, path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := registry.Validate(reg); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	if drift := registry.Drift(reg); len(drift) > 0 {
		return fmt.Errorf("registry is out of date for %s; run registry-updater generate", strings.Join(drift, ", "))
	}
	fmt.Fprintf(w, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}
