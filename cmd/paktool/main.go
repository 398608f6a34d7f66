package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/user/pakgo/pkg/pak"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	root := &cobra.Command{
		Use:           "paktool",
		Short:         "Inspect, extract and build pak (d2p) archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(listCmd(), propsCmd(), extractCmd(), extractAllCmd(), packCmd())
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive>",
		Short: "List every file across all linked segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := pak.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			chunks := reader.Chunks()
			names := make([]string, 0, len(chunks))
			for name := range chunks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%10d  %s\n", chunks[name].Size(), name)
			}
			log.Info().Int("files", len(names)).Msg("archive listed")
			return nil
		},
	}
}

func propsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "props <archive>",
		Short: "Print the merged property table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := pak.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			properties := reader.Properties()
			keys := make([]string, 0, len(properties))
			for key := range properties {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, properties[key])
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extract <archive> <file>",
		Short: "Extract a single file from the archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := pak.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			data, err := reader.ReadFile(args[1])
			if err != nil {
				return err
			}
			output := filepath.Join(out, filepath.Base(args[1]))
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			log.Info().Str("file", args[1]).Str("output", output).Int("bytes", len(data)).Msg("file extracted")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}

func extractAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract-all <archive> <dest>",
		Short: "Extract the whole archive into a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := pak.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			if err := reader.Extract(args[1]); err != nil {
				return err
			}
			log.Info().Int("files", reader.Len()).Str("dest", args[1]).Msg("archive extracted")
			return nil
		},
	}
}

func packCmd() *cobra.Command {
	var properties []string
	cmd := &cobra.Command{
		Use:   "pack <dir> <archive>",
		Short: "Pack a directory tree into a single-segment archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := pak.NewBuilder()
			for _, property := range properties {
				key, value, ok := strings.Cut(property, "=")
				if !ok {
					return fmt.Errorf("property %q is not of the form key=value", property)
				}
				builder.SetProperty(key, value)
			}

			src := args[0]
			count := 0
			err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				rel, err := filepath.Rel(src, path)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				builder.Add(filepath.ToSlash(rel), data)
				count++
				return nil
			})
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := builder.WriteTo(out); err != nil {
				out.Close()
				return err
			}
			log.Info().Int("files", count).Str("archive", args[1]).Msg("archive written")
			return out.Close()
		},
	}
	cmd.Flags().StringArrayVarP(&properties, "property", "p", nil, "property to store, as key=value (repeatable)")
	return cmd
}
