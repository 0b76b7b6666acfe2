// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"hub-backoffice/pkg/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", "", "Registry file (default: the registry built into the service)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := load(*path)
		if err != nil {
			return err
		}
		return listActivities(reg, out)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", "", "Registry file (default: the registry built into the service)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := load(*path)
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil

	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		path := fs.String("path", "", "Registry file (default: the registry built into the service)")
		taskType := fs.String("taskType", "", "Task type whose input schema to check against")
		input := fs.String("input", "", "JSON file holding the job variables")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *taskType == "" || *input == "" {
			return fmt.Errorf("taskType and input are required for check")
		}
		reg, err := load(*path)
		if err != nil {
			return err
		}
		variables, err := os.ReadFile(*input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if err := reg.ValidateInput(*taskType, variables); err != nil {
			return err
		}
		fmt.Fprintf(out, "Input is valid for %s.\n", *taskType)
		return nil

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", "pkg/registry/activities.json", "Registry file to update")
		id := fs.String("id", "", "Activity ID to update")
		field := fs.String("field", "", "Field to update (status, version, timeout, retries, ...)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateActivity(*path, *id, *field, *value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)
		return nil

	case "help":
		help(out)
		return nil

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func load(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func listActivities(reg *registry.ActivityRegistry, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK TYPE\tVERSION\tSTATUS\tTIMEOUT\tRETRIES\tERROR CODES")
	for _, a := range reg.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%v\n", a.TaskType, a.Version, a.ImplementationStatus, a.Timeout, a.Retries, a.ErrorCodes)
	}
	return tw.Flush()
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "timeout":
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("update would leave registry invalid: %w", err)
	}
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: registry-updater <command> [flags]

Commands:
  list      List the activities and their task types
  validate  Validate a registry file (or the built-in registry)
  check     Validate job variables against an activity's input schema
  update    Update an existing activity's field
  help      Show this help message

Examples:
  registry-updater list
  registry-updater validate -path pkg/registry/activities.json
  registry-updater check -taskType onboarding-digest -input digest-vars.json
  registry-updater update -id onboarding-digest -field timeout -value 90s`)
}
