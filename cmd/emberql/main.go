// Package main implements the emberql command-line embedding surface. It
// uses a cobra root command with one
// subcommand per mode of use, logging and error handling wired the same
// way (an RunE returning the wrapped error, printed once at the top).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"emberql/exec"
	"emberql/glue"
	"emberql/storage/memory"
)

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func main() {
	var verbose bool
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "emberql",
		Short: "Embeddable SQL engine",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML engine config file")

	openGlue := func(ctx context.Context) (*glue.Glue, error) {
		cfg := glue.DefaultConfig()
		if configPath != "" {
			loaded, err := glue.LoadConfig(configPath)
			if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
		}
		return glue.New(ctx, memory.New(), cfg, newLogger(verbose))
	}

	execCmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a single SQL statement (or ; separated batch) against an in-memory store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := openGlue(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = g.Close(ctx) }()
			return runAndPrint(ctx, g, args[0])
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <file.sql>",
		Short: "Run a SQL script file against an in-memory store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			ctx := cmd.Context()
			g, err := openGlue(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = g.Close(ctx) }()
			return runAndPrint(ctx, g, string(data))
		},
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive SQL prompt against an in-memory store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := openGlue(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = g.Close(ctx) }()
			return repl(ctx, g)
		},
	}

	rootCmd.AddCommand(execCmd, runCmd, replCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAndPrint(ctx context.Context, g *glue.Glue, sqlText string) error {
	payloads, err := g.Execute(ctx, sqlText)
	for _, p := range payloads {
		printPayload(p)
	}
	return err
}

func repl(ctx context.Context, g *glue.Glue) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("emberql> ")
	var buf strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if err := runAndPrint(ctx, g, buf.String()); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			buf.Reset()
		}
		fmt.Print("emberql> ")
	}
	fmt.Println()
	return scanner.Err()
}

func printPayload(p exec.Payload) {
	switch p.Kind {
	case exec.PayloadSelect:
		fmt.Println(strings.Join(p.Labels, "\t"))
		for _, row := range p.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.String()
			}
			fmt.Println(strings.Join(cells, "\t"))
		}
	case exec.PayloadSelectMap:
		for _, doc := range p.Docs {
			fmt.Println(doc)
		}
	case exec.PayloadInsert:
		fmt.Printf("INSERT %d\n", p.Count)
	case exec.PayloadUpdate:
		fmt.Printf("UPDATE %d\n", p.Count)
	case exec.PayloadDelete:
		fmt.Printf("DELETE %d\n", p.Count)
	case exec.PayloadDropTable:
		fmt.Printf("DROP TABLE (%d)\n", p.Count)
	case exec.PayloadCreateTable:
		fmt.Println("CREATE TABLE")
	case exec.PayloadAlterTable:
		fmt.Println("ALTER TABLE")
	case exec.PayloadCreateIndex:
		fmt.Println("CREATE INDEX")
	case exec.PayloadDropIndex:
		fmt.Println("DROP INDEX")
	case exec.PayloadStartTransaction:
		fmt.Println("STARTED TRANSACTION")
	case exec.PayloadCommit:
		fmt.Println("COMMIT")
	case exec.PayloadRollback:
		fmt.Println("ROLLBACK")
	case exec.PayloadShowVariable:
		fmt.Printf("%s = %s\n", p.VariableName, p.VariableValue)
	case exec.PayloadShowColumns:
		for _, c := range p.Columns {
			fmt.Println(c.Name)
		}
	case exec.PayloadShowIndexes:
		for _, idx := range p.Indexes {
			fmt.Println(idx.Name)
		}
	}
}
