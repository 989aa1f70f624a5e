package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPredicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predicates",
		Short: "Manage the predicate registry",
		Long: `Manages the registry of relationship predicates. The registry is
advisory: relationships may use unregistered predicates, the registry just
documents the vocabulary a story uses.`,
		RunE: runPredicatesList,
	}

	cmd.AddCommand(
		newPredicatesListCmd(),
		newPredicatesAddCmd(),
		newPredicatesRemoveCmd(),
		newPredicatesDescribeCmd(),
	)

	return cmd
}

func newPredicatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered predicates",
		RunE:  runPredicatesList,
	}
}

func runPredicatesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		predicates, err := d.Predicates.HandleList(ctx)
		if err != nil {
			return fmt.Errorf("listing predicates: %w", err)
		}

		if len(predicates) == 0 {
			fmt.Println("No predicates registered.")
			return nil
		}

		for _, predicate := range predicates {
			fmt.Printf("  %-20s %s\n", predicate.Name, predicate.Description)
		}

		return nil
	})
}

func newPredicatesAddCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredicatesAdd(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Predicate description")

	return cmd
}

func runPredicatesAdd(cmd *cobra.Command, name, description string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Predicates.HandleAdd(ctx, name, description); err != nil {
			return fmt.Errorf("adding predicate: %w", err)
		}

		fmt.Printf("Registered predicate: %s\n", name)
		return nil
	})
}

func newPredicatesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Unregister a predicate",
		Args:  cobra.ExactArgs(1),
		RunE:  runPredicatesRemove,
	}
}

func runPredicatesRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Predicates.HandleRemove(ctx, args[0]); err != nil {
			return fmt.Errorf("removing predicate: %w", err)
		}

		fmt.Printf("Unregistered predicate: %s\n", args[0])
		return nil
	})
}

func newPredicatesDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show a predicate",
		Args:  cobra.ExactArgs(1),
		RunE:  runPredicatesDescribe,
	}
}

func runPredicatesDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		predicate, err := d.Predicates.HandleDescribe(ctx, args[0])
		if err != nil {
			return fmt.Errorf("describing predicate: %w", err)
		}

		if predicate == nil {
			fmt.Printf("Predicate %q is not registered.\n", args[0])
			return nil
		}

		fmt.Printf("Name:        %s\n", predicate.Name)
		if predicate.Description != "" {
			fmt.Printf("Description: %s\n", predicate.Description)
		}

		return nil
	})
}
