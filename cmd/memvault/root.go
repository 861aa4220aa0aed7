package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucidnotes/memvault/pkg/core"
	"github.com/lucidnotes/memvault/pkg/export"
	"github.com/lucidnotes/memvault/pkg/memory"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "memvault",
		Short:         "Encrypted memory store for journal-derived facts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newSearchCmd(),
		newExtractCmd(),
		newRmCmd(),
		newClearCmd(),
		newPinCmd(),
		newTagCmd(),
		newExportCmd(),
		newImportCmd(),
		newStatsCmd(),
		newSettingsCmd(),
		newCleanCmd(),
	)
	return root
}

// openClient builds a client from the environment. Every subcommand goes
// through here so configuration handling stays in one place.
func openClient() (*core.Client, error) {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return core.NewClient(cfg)
}

func printMemory(cmd *cobra.Command, m *memory.Memory) {
	pin := " "
	if m.Pinned {
		pin = "*"
	}
	line := fmt.Sprintf("%s %d  [%.2f] %-17s %s", pin, m.ID, m.Importance, m.Type.DisplayName(), m.Content)
	if len(m.Tags) > 0 {
		line += "  #" + strings.Join(m.Tags, " #")
	}
	cmd.Println(line)
}

func newAddCmd() *cobra.Command {
	var (
		typeName   string
		importance float64
		tags       []string
		pinned     bool
		source     string
	)
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Store a memory directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			t, ok := memory.ParseMemoryType(typeName)
			if !ok {
				return fmt.Errorf("unknown memory type %q", typeName)
			}

			opts := []core.CreateOption{core.WithTags(tags...)}
			if cmd.Flags().Changed("importance") {
				opts = append(opts, core.WithImportance(importance))
			}
			if pinned {
				opts = append(opts, core.WithPinned())
			}
			if source != "" {
				opts = append(opts, core.WithSourceEntry(source))
			}

			m, err := client.Create(cmd.Context(), args[0], t, opts...)
			if err != nil && !errors.Is(err, core.ErrCapacityExceededByPins) {
				return err
			}
			if errors.Is(err, core.ErrCapacityExceededByPins) {
				cmd.PrintErrln("warning: store over capacity, all remaining memories are pinned")
			}
			printMemory(cmd, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", string(memory.TypeUserProvided), "memory type")
	cmd.Flags().Float64Var(&importance, "importance", 0, "importance override in [0,1]")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().BoolVar(&pinned, "pin", false, "exempt from capacity eviction")
	cmd.Flags().StringVar(&source, "source", "", "originating entry id")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all memories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			memories, err := client.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range memories {
				printMemory(cmd, m)
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search content, tags, and type names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			memories, err := client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range memories {
				printMemory(cmd, m)
			}
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract memories from entry text (stdin if no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = readAll(cmd)
			}
			if err != nil {
				return err
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ids, err := client.Extract(cmd.Context(), string(data), source)
			if errors.Is(err, core.ErrExtractionUnavailable) {
				cmd.PrintErrln("extraction unavailable; no memories written")
				return nil
			}
			if err != nil && !errors.Is(err, core.ErrCapacityExceededByPins) {
				return err
			}
			cmd.Printf("extracted %d memories\n", len(ids))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "originating entry id")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete memories by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.DeleteMany(cmd.Context(), ids)
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every memory, pinned included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.ClearAll(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the clear")
	return cmd
}

func newPinCmd() *cobra.Command {
	var unpin bool
	cmd := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin or unpin a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad id %q: %w", args[0], err)
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.SetPinned(cmd.Context(), id, !unpin)
		},
	}
	cmd.Flags().BoolVar(&unpin, "unpin", false, "remove the pin")
	return cmd
}

func newTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> [tag]...",
		Short: "Replace a memory's tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad id %q: %w", args[0], err)
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.SetTags(cmd.Context(), id, args[1:])
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		formatName string
		metadata   bool
	)
	cmd := &cobra.Command{
		Use:   "export [id]...",
		Short: "Export memories (all when no ids given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			var ids []int64
			if len(args) > 0 {
				if ids, err = parseIDs(args); err != nil {
					return err
				}
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			blob, err := client.Export(cmd.Context(), ids, format, metadata)
			if err != nil {
				return err
			}
			cmd.Println(blob)
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "markdown", "markdown, json, or plaintext")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "include importance, dates, and tags")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import memories from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.Import(cmd.Context(), string(data))
			if err != nil && !errors.Is(err, core.ErrCapacityExceededByPins) {
				return err
			}
			if errors.Is(err, core.ErrCapacityExceededByPins) {
				cmd.PrintErrln("warning: store over capacity, all remaining memories are pinned")
			}
			cmd.Printf("imported %d memories\n", n)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("memories:           %d (%d pinned)\n", stats.Count, stats.PinnedCount)
			cmd.Printf("average importance: %.2f\n", stats.AverageImportance)
			if stats.MostActiveDay != "" {
				cmd.Printf("most active day:    %s\n", stats.MostActiveDay)
			}
			for _, t := range memory.AllTypes {
				if n := stats.ByType[t]; n > 0 {
					cmd.Printf("  %-17s %d\n", t.DisplayName(), n)
				}
			}
			return nil
		},
	}
}

func newSettingsCmd() *cobra.Command {
	var (
		auto      bool
		maxCount  int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update subsystem settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			upd := core.SettingsUpdate{}
			if cmd.Flags().Changed("auto-extract") {
				upd.AutomaticExtraction = &auto
			}
			if cmd.Flags().Changed("max-count") {
				upd.MaxMemoryCount = &maxCount
			}
			if cmd.Flags().Changed("min-importance") {
				upd.MinImportanceThreshold = &threshold
			}

			s := client.Settings()
			if upd != (core.SettingsUpdate{}) {
				s, err = client.UpdateSettings(cmd.Context(), upd)
				if err != nil && !errors.Is(err, core.ErrCapacityExceededByPins) {
					return err
				}
				if errors.Is(err, core.ErrCapacityExceededByPins) {
					cmd.PrintErrln("warning: store over capacity, all remaining memories are pinned")
				}
			}

			cmd.Printf("automatic extraction:     %v\n", s.AutomaticExtraction)
			cmd.Printf("max memory count:         %d\n", s.MaxMemoryCount)
			cmd.Printf("min importance threshold: %.2f\n", s.MinImportanceThreshold)
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto-extract", true, "enable automatic extraction")
	cmd.Flags().IntVar(&maxCount, "max-count", memory.DefaultMemoryCount, "capacity bound")
	cmd.Flags().Float64Var(&threshold, "min-importance", memory.DefaultImportanceThreshold, "candidate gate")
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Strip residual markup from every memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.CleanAllFormatting(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("cleaned %d memories\n", n)
			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
