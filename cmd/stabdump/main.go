package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/dbg"
	"github.com/wdbg/stabs/pkg/logging"
	"github.com/wdbg/stabs/pkg/logging/logfields"
	"github.com/wdbg/stabs/pkg/stabelf"
	"github.com/wdbg/stabs/pkg/symtab"
)

func newCommand() *cobra.Command {
	var (
		sections    bool
		leadingChar string
		cacheSize   int
	)

	this := &cobra.Command{
		Use:   "stabdump [object]",
		Short: "Decode the stab debugging sections of an ELF object and print the recovered debug information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || len(args[0]) == 0 {
				return fmt.Errorf("object file is required")
			}

			v := viper.New()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logging.SetupLoggingWithViper(v)

			log := logging.DefaultLogger.WithField(logfields.LogComponent, "cmd")

			f, err := stabelf.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			recs, err := f.Records()
			if err != nil {
				return err
			}
			log.Infof("Read %d stab records from %s", len(recs), args[0])

			var stopts []symtab.Option
			if leadingChar != "" {
				stopts = append(stopts, symtab.WithLeadingChar(leadingChar[0]))
			}
			st, err := f.SymbolTable(stopts...)
			if err != nil {
				return err
			}

			dopts := []stabs.Option{
				stabs.WithSymbolTable(st),
				stabs.WithDemangleCacheSize(cacheSize),
			}
			if sections {
				dopts = append(dopts, stabs.WithSectionRelativeValues())
			}

			b := dbg.NewBuilder()
			dec := stabs.NewDecoder(b, dopts...)
			for _, rec := range recs {
				if err := dec.Parse(rec); err != nil {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}
			}
			if err := dec.Close(); err != nil {
				return err
			}

			b.Fprint(cmd.OutOrStdout())
			return nil
		},
	}

	this.Flags().BoolVar(&sections, "section-relative", false, "Treat stab addresses as section relative, as some producers emit them.")
	this.Flags().StringVar(&leadingChar, "leading-char", "", "Character the assembler prepends to symbol names, usually '_' when set.")
	this.Flags().IntVar(&cacheSize, "demangle-cache", 128, "Number of demangled method signatures to cache.")
	this.Flags().String("log.level", "info", "Log level. Available options: panic, fatal, error, info (default), warn (or warning), debug and trace.")
	this.Flags().String("log.format", "text", "Log output format. Available options: text (default) and json.")
	this.Flags().Bool("log.output-as-stderr", false, "If enable, the output log will be print as stderr. Otherwise, print logs as stdout.")

	return this
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
